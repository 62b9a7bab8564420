package queue

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/trussle/relay/pkg/breaker"
	"github.com/trussle/relay/pkg/models"
	"github.com/trussle/uuid"
)

// RemoteConfig creates a configuration to create a RemoteQueue.
type RemoteConfig struct {
	ID, Secret, Token   string
	Region, Queue       string
	MaxNumberOfMessages int64
	VisibilityTimeout   time.Duration
}

type remoteQueue struct {
	client              *sqs.SQS
	circuit             *breaker.CircuitBreaker
	queueName           string
	queueURL            *string
	maxNumberOfMessages *int64
	waitTime            *int64
	visibilityTimeout   *int64
	randSource          *rand.Rand
	logger              log.Logger
}

// NewRemoteQueue creates a new remote peer that abstracts over a SQS queue.
func NewRemoteQueue(config *RemoteConfig, logger log.Logger) (Queue, error) {
	return newRemoteQueue(config, logger)
}

func newRemoteQueue(config *RemoteConfig, logger log.Logger) (*remoteQueue, error) {
	creds := credentials.NewChainCredentials(
		[]credentials.Provider{
			&credentials.EnvProvider{},
			&credentials.StaticProvider{
				Value: credentials.Value{
					AccessKeyID:     config.ID,
					SecretAccessKey: config.Secret,
					SessionToken:    config.Token,
				},
			},
		},
	)
	if _, err := creds.Get(); err != nil {
		return nil, errors.Wrap(err, "invalid credentials")
	}

	var (
		cfg = aws.NewConfig().
			WithRegion(config.Region).
			WithCredentials(creds).
			WithCredentialsChainVerboseErrors(true)
		client = sqs.New(session.New(cfg))
	)

	// Attempt to get the queueURL
	queueURL, err := client.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: aws.String(config.Queue),
	})
	if err != nil {
		return nil, err
	}

	return &remoteQueue{
		client:              client,
		circuit:             breaker.New(),
		queueName:           config.Queue,
		queueURL:            queueURL.QueueUrl,
		maxNumberOfMessages: aws.Int64(config.MaxNumberOfMessages),
		visibilityTimeout:   aws.Int64(int64(config.VisibilityTimeout)),
		randSource:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:              logger,
	}, nil
}

func (q *remoteQueue) Enqueue(rec models.Record) error {
	return q.circuit.Run(func() error {
		input := &sqs.SendMessageInput{
			MessageBody: aws.String(string(rec.Body)),
			QueueUrl:    q.queueURL,
		}
		if rec.PartitionKey != "" {
			input.MessageGroupId = aws.String(rec.PartitionKey)
		}

		_, err := q.client.SendMessage(input)
		return err
	})
}

func (q *remoteQueue) Dequeue() (models.Records, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            q.queueURL,
		MaxNumberOfMessages: q.maxNumberOfMessages,
		AttributeNames: []*string{
			aws.String("All"),
		},
		WaitTimeSeconds: q.waitTime,
	}

	resp, err := q.client.ReceiveMessage(input)
	if err != nil {
		return nil, err
	}

	records := make(models.Records, len(resp.Messages))
	for k, v := range resp.Messages {
		id, e := uuid.NewWithRand(q.randSource)
		if e != nil {
			return nil, e
		}

		records[k] = models.Record{
			ID:             id,
			PartitionKey:   aws.StringValue(v.Attributes[sqs.MessageSystemAttributeNameMessageGroupId]),
			SequenceNumber: sequenceNumber(v),
			ShardID:        q.queueName,
			Receipt:        aws.StringValue(v.ReceiptHandle),
			Body:           []byte(aws.StringValue(v.Body)),
			Timestamp:      sentTimestamp(v),
		}
	}

	if err = q.changeMessageVisibility(records); err != nil {
		return nil, err
	}

	return records, nil
}

func (q *remoteQueue) Commit(records models.Records) (Result, error) {
	if records.Len() == 0 {
		return Result{0, 0}, nil
	}

	entries := make([]*sqs.DeleteMessageBatchRequestEntry, records.Len())
	for k, v := range records {
		entries[k] = &sqs.DeleteMessageBatchRequestEntry{
			Id:            aws.String(v.ID.String()),
			ReceiptHandle: aws.String(v.Receipt),
		}
	}

	input := &sqs.DeleteMessageBatchInput{
		Entries:  entries,
		QueueUrl: q.queueURL,
	}
	output, err := q.client.DeleteMessageBatch(input)
	if err != nil {
		return Result{0, records.Len()}, err
	}

	failed := len(output.Failed)
	if failed > 0 {
		level.Warn(q.logger).Log("state", "commit", "failed", failed)
		// There is nothing we can do here, other than allow the queue to
		// resend them at a further time.
	}

	return Result{records.Len() - failed, failed}, nil
}

func (q *remoteQueue) Failed(records models.Records) (Result, error) {
	if records.Len() == 0 {
		return Result{0, 0}, nil
	}

	// Zeroing the visibility hands the records straight back for
	// redelivery.
	entries := make([]*sqs.ChangeMessageVisibilityBatchRequestEntry, records.Len())
	for k, v := range records {
		entries[k] = &sqs.ChangeMessageVisibilityBatchRequestEntry{
			Id:                aws.String(v.ID.String()),
			ReceiptHandle:     aws.String(v.Receipt),
			VisibilityTimeout: aws.Int64(0),
		}
	}

	input := &sqs.ChangeMessageVisibilityBatchInput{
		Entries:  entries,
		QueueUrl: q.queueURL,
	}
	output, err := q.client.ChangeMessageVisibilityBatch(input)
	if err != nil {
		return Result{0, records.Len()}, err
	}

	failed := len(output.Failed)
	if failed > 0 {
		level.Warn(q.logger).Log("state", "failed", "failed", failed)
	}

	return Result{records.Len() - failed, failed}, nil
}

func (q *remoteQueue) changeMessageVisibility(records models.Records) error {
	// fast exit
	if records.Len() == 0 {
		return nil
	}

	var (
		timeout = *q.visibilityTimeout
		seconds = time.Duration(timeout) / time.Second
	)
	if timeout == 0 || seconds <= 0 {
		return nil
	}

	entries := make([]*sqs.ChangeMessageVisibilityBatchRequestEntry, records.Len())
	for k, v := range records {
		entries[k] = &sqs.ChangeMessageVisibilityBatchRequestEntry{
			Id:                aws.String(v.ID.String()),
			ReceiptHandle:     aws.String(v.Receipt),
			VisibilityTimeout: aws.Int64(int64(seconds)),
		}
	}

	input := &sqs.ChangeMessageVisibilityBatchInput{
		Entries:  entries,
		QueueUrl: q.queueURL,
	}
	output, err := q.client.ChangeMessageVisibilityBatch(input)
	if err != nil {
		level.Warn(q.logger).Log("state", "visibility change", "err", err)
		return err
	}
	if num := len(output.Failed); num > 0 {
		level.Warn(q.logger).Log("state", "visibility change", "failed", num)
	}
	return nil
}

// sequenceNumber prefers the FIFO queue's per-group sequence attribute,
// falling back to the message id for standard queues.
func sequenceNumber(msg *sqs.Message) string {
	if seq, ok := msg.Attributes[sqs.MessageSystemAttributeNameSequenceNumber]; ok {
		return aws.StringValue(seq)
	}
	return aws.StringValue(msg.MessageId)
}

func sentTimestamp(msg *sqs.Message) time.Time {
	if ts, ok := msg.Attributes[sqs.MessageSystemAttributeNameSentTimestamp]; ok {
		if millis, err := strconv.ParseInt(aws.StringValue(ts), 10, 64); err == nil {
			return time.Unix(0, millis*int64(time.Millisecond))
		}
	}
	return time.Now()
}

// ConfigOption defines a option for generating a RemoteConfig
type ConfigOption func(*RemoteConfig) error

// BuildConfig ingests configuration options to then yield a
// RemoteConfig, and return an error if it fails during configuring.
func BuildConfig(opts ...ConfigOption) (*RemoteConfig, error) {
	var config RemoteConfig
	for _, opt := range opts {
		err := opt(&config)
		if err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// WithID adds an ID option to the configuration
func WithID(id string) ConfigOption {
	return func(config *RemoteConfig) error {
		config.ID = id
		return nil
	}
}

// WithSecret adds an Secret option to the configuration
func WithSecret(secret string) ConfigOption {
	return func(config *RemoteConfig) error {
		config.Secret = secret
		return nil
	}
}

// WithToken adds an Token option to the configuration
func WithToken(token string) ConfigOption {
	return func(config *RemoteConfig) error {
		config.Token = token
		return nil
	}
}

// WithRegion adds an Region option to the configuration
func WithRegion(region string) ConfigOption {
	return func(config *RemoteConfig) error {
		config.Region = region
		return nil
	}
}

// WithQueue adds an Queue option to the configuration
func WithQueue(queue string) ConfigOption {
	return func(config *RemoteConfig) error {
		config.Queue = queue
		return nil
	}
}

// WithMaxNumberOfMessages adds an MaxNumberOfMessages option to the
// configuration
func WithMaxNumberOfMessages(numOfMessages int64) ConfigOption {
	return func(config *RemoteConfig) error {
		config.MaxNumberOfMessages = numOfMessages
		return nil
	}
}

// WithVisibilityTimeout adds an VisibilityTimeout option to the
// configuration
func WithVisibilityTimeout(visibilityTimeout time.Duration) ConfigOption {
	return func(config *RemoteConfig) error {
		config.VisibilityTimeout = visibilityTimeout
		return nil
	}
}
