package dlq

import (
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/firehose"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/trussle/relay/pkg/models"
)

// RemoteConfig creates a configuration to create a RemoteRouter.
type RemoteConfig struct {
	EC2Role           bool
	ID, Secret, Token string
	Region, Stream    string
}

type remoteRouter struct {
	client    *firehose.Firehose
	streamURL *string
	logger    log.Logger
}

func newRemoteRouter(config *RemoteConfig, logger log.Logger) (Router, error) {
	// If in EC2Role, attempt to get things from env or ec2role, else just use
	// static credentials...
	var creds *credentials.Credentials
	if config.EC2Role {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvProvider{},
			&ec2rolecreds.EC2RoleProvider{
				Client: ec2metadata.New(session.New()),
			},
		})
	} else {
		creds = credentials.NewStaticCredentials(
			config.ID,
			config.Secret,
			config.Token,
		)
	}
	if _, err := creds.Get(); err != nil {
		return nil, errors.Wrap(err, "invalid credentials")
	}

	var (
		cfg = aws.NewConfig().
			WithRegion(config.Region).
			WithCredentials(creds).
			WithCredentialsChainVerboseErrors(true)
		client = firehose.New(session.New(cfg))
	)

	return &remoteRouter{
		client:    client,
		streamURL: aws.String(config.Stream),
		logger:    logger,
	}, nil
}

func (r *remoteRouter) SendBatch(letters models.DeadLetters) (Result, error) {
	if len(letters) == 0 {
		return Result{0, 0}, nil
	}

	var (
		records    []*firehose.Record
		marshalled int
	)
	for _, letter := range letters {
		data, err := row(letter)
		if err != nil {
			// The record can not be serialised; nothing further to do for it.
			level.Warn(r.logger).Log("state", "marshal", "sequence", letter.Record.SequenceNumber, "err", err)
			continue
		}
		marshalled++
		records = append(records, &firehose.Record{
			Data: data,
		})
	}

	failed := len(letters) - marshalled
	if len(records) == 0 {
		return Result{0, failed}, nil
	}

	input := &firehose.PutRecordBatchInput{
		DeliveryStreamName: r.streamURL,
		Records:            records,
	}

	output, err := r.client.PutRecordBatch(input)
	if err != nil {
		level.Warn(r.logger).Log("state", "remote-put", "err", err)
		return Result{0, len(letters)}, nil
	}
	if amount := int(aws.Int64Value(output.FailedPutCount)); amount > 0 {
		level.Warn(r.logger).Log("state", "remote-put", "failed", amount)
		failed += amount
	}

	return Result{len(letters) - failed, failed}, nil
}

// envelope is the wire shape of a dead letter. The original record rides
// alongside the failure detail so the message can be replayed or diagnosed
// without this system.
type envelope struct {
	Partition     string                 `json:"partition"`
	Sequence      string                 `json:"sequence"`
	Shard         string                 `json:"shard"`
	Body          []byte                 `json:"body"`
	ArrivedAt     time.Time              `json:"arrived_at"`
	Error         models.DeadLetterError `json:"error"`
	Attempts      int                    `json:"attempts"`
	FirstAttempt  time.Time              `json:"first_attempt"`
	LastAttempt   time.Time              `json:"last_attempt"`
	CorrelationID string                 `json:"correlation_id"`
}

func row(letter models.DeadLetter) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Partition:     letter.Record.PartitionKey,
		Sequence:      letter.Record.SequenceNumber,
		Shard:         letter.Record.ShardID,
		Body:          letter.Record.Body,
		ArrivedAt:     letter.Record.Timestamp,
		Error:         letter.Error,
		Attempts:      letter.Attempts,
		FirstAttempt:  letter.FirstAttempt,
		LastAttempt:   letter.LastAttempt,
		CorrelationID: letter.CorrelationID,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RemoteConfigOption defines a option for generating a RemoteConfig
type RemoteConfigOption func(*RemoteConfig) error

// BuildRemoteConfig ingests configuration options to then yield a
// RemoteConfig, and return an error if it fails during configuring.
func BuildRemoteConfig(opts ...RemoteConfigOption) (*RemoteConfig, error) {
	var config RemoteConfig
	for _, opt := range opts {
		err := opt(&config)
		if err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// WithEC2Role adds an EC2Role option to the configuration
func WithEC2Role(ec2Role bool) RemoteConfigOption {
	return func(config *RemoteConfig) error {
		config.EC2Role = ec2Role
		return nil
	}
}

// WithID adds an ID option to the configuration
func WithID(id string) RemoteConfigOption {
	return func(config *RemoteConfig) error {
		config.ID = id
		return nil
	}
}

// WithSecret adds an Secret option to the configuration
func WithSecret(secret string) RemoteConfigOption {
	return func(config *RemoteConfig) error {
		config.Secret = secret
		return nil
	}
}

// WithToken adds an Token option to the configuration
func WithToken(token string) RemoteConfigOption {
	return func(config *RemoteConfig) error {
		config.Token = token
		return nil
	}
}

// WithRegion adds an Region option to the configuration
func WithRegion(region string) RemoteConfigOption {
	return func(config *RemoteConfig) error {
		config.Region = region
		return nil
	}
}

// WithStream adds an Stream option to the configuration
func WithStream(stream string) RemoteConfigOption {
	return func(config *RemoteConfig) error {
		config.Stream = stream
		return nil
	}
}
