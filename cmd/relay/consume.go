package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/SimonRichardson/flagset"
	"github.com/SimonRichardson/gexec"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/trussle/fsys"
	"github.com/trussle/relay/pkg/checkpoint"
	"github.com/trussle/relay/pkg/consumer"
	"github.com/trussle/relay/pkg/dedup"
	"github.com/trussle/relay/pkg/dlq"
	"github.com/trussle/relay/pkg/event"
	"github.com/trussle/relay/pkg/queue"
	"github.com/trussle/relay/pkg/retry"
	"github.com/trussle/relay/pkg/semaphore"
	"github.com/trussle/relay/pkg/status"
)

const (
	defaultAPIAddr = "tcp://0.0.0.0:8080"
	defaultAPIPort = 8080

	defaultQueue         = "remote"
	defaultRouter        = "nop"
	defaultStore         = "virtual"
	defaultStoreRootPath = "bin"
	defaultFilesystem    = "nop"
	defaultTracker       = "virtual"
	defaultTrackerTTL    = "1h"
	defaultTrackerSweep  = "5m"
	defaultConcurrency   = 10
	defaultMaxAttempts   = 3
	defaultNumConsumers  = 2

	defaultAWSID     = ""
	defaultAWSSecret = ""
	defaultAWSToken  = ""
	defaultAWSRegion = "eu-west-1"

	defaultAWSSQSQueue       = ""
	defaultAWSFirehoseStream = ""

	defaultMaxNumberOfMessages = 10
	defaultVisibilityTimeout   = "1s"
	defaultMetricsRegistration = true
)

func runConsume(args []string) error {
	// flags for the consume command
	var (
		flags = flagset.NewFlagSet("consume", flag.ExitOnError)

		debug   = flags.Bool("debug", false, "debug logging")
		apiAddr = flags.String("api", defaultAPIAddr, "listen address for consume API")

		awsID     = flags.String("aws.id", defaultAWSID, "AWS configuration id")
		awsSecret = flags.String("aws.secret", defaultAWSSecret, "AWS configuration secret")
		awsToken  = flags.String("aws.token", defaultAWSToken, "AWS configuration token")
		awsRegion = flags.String("aws.region", defaultAWSRegion, "AWS configuration region")

		awsSQSQueue       = flags.String("aws.sqs.queue", defaultAWSSQSQueue, "AWS configuration queue")
		awsFirehoseStream = flags.String("aws.firehose.stream", defaultAWSFirehoseStream, "AWS configuration stream")

		queueType      = flags.String("queue", defaultQueue, "type of queue to use (remote, virtual, nop)")
		routerType     = flags.String("dlq", defaultRouter, "type of dead-letter router to use (remote, virtual, nop)")
		storeType      = flags.String("checkpoint", defaultStore, "type of checkpoint store to use (local, virtual, nop)")
		storeRootPath  = flags.String("checkpoint.path", defaultStoreRootPath, "checkpoint root directory for the filesystem to use")
		filesystemType = flags.String("filesystem", defaultFilesystem, "type of filesystem backing (local, virtual, nop)")
		trackerType    = flags.String("dedup", defaultTracker, "type of dedup tracker to use (virtual, nop)")
		trackerTTL     = flags.String("dedup.ttl", defaultTrackerTTL, "how long a dedup key suppresses redeliveries")
		trackerSweep   = flags.String("dedup.sweep", defaultTrackerSweep, "how often expired dedup keys are swept")

		concurrency  = flags.Int("concurrency", defaultConcurrency, "max records processed simultaneously per batch")
		maxAttempts  = flags.Int("max.attempts", defaultMaxAttempts, "attempt budget per record")
		numConsumers = flags.Int("num.consumers", defaultNumConsumers, "number of consumers to run at once")

		maxNumberOfMessages = flags.Int("max.messages", defaultMaxNumberOfMessages, "max number of messages to dequeue at once")
		visibilityTimeout   = flags.String("visibility.timeout", defaultVisibilityTimeout, "how long the visibility of a message should extended by in seconds")

		metricsRegistration = flags.Bool("metrics.registration", defaultMetricsRegistration, "Registration of metrics on launch")
	)

	flags.Usage = usageFor(flags, "consume [flags]")
	if err := flags.Parse(args); err != nil {
		return nil
	}

	// Setup the logger.
	var logger log.Logger
	{
		logLevel := level.AllowInfo()
		if *debug {
			logLevel = level.AllowAll()
		}
		logger = log.NewLogfmtLogger(os.Stdout)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = level.NewFilter(logger, logLevel)
	}

	// Instrumentation
	consumedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "consumed_records",
		Help:      "Records consumed from the source queue.",
	})
	processedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "processed_records",
		Help:      "Records processed successfully.",
	})
	skippedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "skipped_records",
		Help:      "Records skipped (duplicates, invalid, unroutable).",
	})
	failedRecords := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "failed_records",
		Help:      "Records that exhausted their attempt budget.",
	})
	deadLetters := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "dead_letters",
		Help:      "Messages routed to the dead-letter sink.",
	})
	checkpointSaves := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "relay",
		Name:      "checkpoint_saves",
		Help:      "Checkpoints saved.",
	})

	if *metricsRegistration {
		prometheus.MustRegister(
			consumedRecords,
			processedRecords,
			skippedRecords,
			failedRecords,
			deadLetters,
			checkpointSaves,
		)
	}

	apiNetwork, apiAddress, err := parseAddr(*apiAddr, defaultAPIPort)
	if err != nil {
		return err
	}
	apiListener, err := net.Listen(apiNetwork, apiAddress)
	if err != nil {
		return err
	}
	level.Debug(logger).Log("API", fmt.Sprintf("%s://%s", apiNetwork, apiAddress))

	// Duration setup.
	visibilityTimeoutDuration, err := time.ParseDuration(*visibilityTimeout)
	if err != nil {
		return err
	}
	trackerTTLDuration, err := time.ParseDuration(*trackerTTL)
	if err != nil {
		return err
	}
	trackerSweepDuration, err := time.ParseDuration(*trackerSweep)
	if err != nil {
		return err
	}

	// Filesystem setup.
	fsysConfig, err := fsys.Build(
		fsys.With(*filesystemType),
	)
	if err != nil {
		return errors.Wrap(err, "filesystem config")
	}

	filesystem, err := fsys.New(fsysConfig)
	if err != nil {
		return errors.Wrap(err, "filesystem")
	}

	// Configuration for the queue
	queueRemoteConfig, err := queue.BuildConfig(
		queue.WithID(*awsID),
		queue.WithSecret(*awsSecret),
		queue.WithToken(*awsToken),
		queue.WithRegion(*awsRegion),
		queue.WithQueue(*awsSQSQueue),
		queue.WithMaxNumberOfMessages(int64(*maxNumberOfMessages)),
		queue.WithVisibilityTimeout(visibilityTimeoutDuration),
	)
	if err != nil {
		return errors.Wrap(err, "queue remote config")
	}

	queueConfig, err := queue.Build(
		queue.With(*queueType),
		queue.WithConfig(queueRemoteConfig),
	)
	if err != nil {
		return errors.Wrap(err, "queue config")
	}

	// Configuration for the dead-letter router
	routerRemoteConfig, err := dlq.BuildRemoteConfig(
		dlq.WithID(*awsID),
		dlq.WithSecret(*awsSecret),
		dlq.WithToken(*awsToken),
		dlq.WithRegion(*awsRegion),
		dlq.WithStream(*awsFirehoseStream),
	)
	if err != nil {
		return errors.Wrap(err, "router remote config")
	}

	routerConfig, err := dlq.Build(
		dlq.With(*routerType),
		dlq.WithRemoteConfig(routerRemoteConfig),
	)
	if err != nil {
		return errors.Wrap(err, "router config")
	}

	// Configuration for the checkpoint store
	storeConfig, err := checkpoint.Build(
		checkpoint.With(*storeType),
		checkpoint.WithRootPath(*storeRootPath),
		checkpoint.WithFilesystem(filesystem),
	)
	if err != nil {
		return errors.Wrap(err, "checkpoint config")
	}

	store, err := checkpoint.New(storeConfig, log.With(logger, "component", "checkpoint"))
	if err != nil {
		return errors.Wrap(err, "checkpoint store")
	}

	// Configuration for the dedup tracker
	trackerConfig, err := dedup.Build(
		dedup.With(*trackerType),
		dedup.WithTTL(trackerTTLDuration),
		dedup.WithSweepInterval(trackerSweepDuration),
	)
	if err != nil {
		return errors.Wrap(err, "dedup config")
	}

	tracker, err := dedup.New(trackerConfig, log.With(logger, "component", "dedup"))
	if err != nil {
		return errors.Wrap(err, "dedup tracker")
	}

	// Hosts hang their event processors off the registry; none ship with
	// the relay itself.
	var (
		validator = event.NopValidator{}
		registry  = event.NewRegistry()
	)

	// Execution group.
	g := gexec.NewGroup()
	gexec.Block(g)
	{
		g.Add(func() error {
			tracker.Run()
			return nil
		}, func(error) {
			tracker.Stop()
		})
	}
	{
		for i := 0; i < *numConsumers; i++ {
			consumerQueue, err := queue.New(queueConfig, log.With(logger, "component", "queue"))
			if err != nil {
				return err
			}

			consumerRouter, err := dlq.New(routerConfig, log.With(logger, "component", "dlq"))
			if err != nil {
				return err
			}

			executor := retry.New(
				log.With(logger, "component", "retry"),
				retry.WithMaxAttempts(*maxAttempts),
			)

			// Create the consumer
			c := consumer.New(
				consumerQueue,
				semaphore.New(*concurrency),
				tracker,
				store,
				consumerRouter,
				executor,
				validator,
				registry,
				consumedRecords,
				processedRecords,
				skippedRecords,
				failedRecords,
				deadLetters,
				checkpointSaves,
				log.With(logger, "component", fmt.Sprintf("consumer-%d", i)),
			)
			g.Add(func() error {
				c.Run()
				return nil
			}, func(error) {
				c.Stop()
			})
		}
	}
	{
		g.Add(func() error {
			mux := http.NewServeMux()
			mux.Handle("/status/", http.StripPrefix("/status", status.NewAPI(
				log.With(logger, "component", "status_api"),
			)))

			registerMetrics(mux)
			registerProfile(mux)

			return http.Serve(apiListener, mux)
		}, func(error) {
			apiListener.Close()
		})
	}
	gexec.Interrupt(g)
	return g.Run()
}
