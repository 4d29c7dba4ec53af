package launch

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	config "github.com/adlaunch-core/v2/configuration"
	models "github.com/adlaunch-core/v2/service/models"
)

var sqs_svc = sqs.New(config.GetAwsSession())

// EnqueueLaunchRequest hands a validated launch to the request queue. The
// background consumers pick it up and drive the pipeline.
func EnqueueLaunchRequest(message models.LaunchQueueMessage) error {
	urlResult, err := sqs_svc.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: aws.String(config.GetEnvConfigs().LaunchQueueName),
	})
	if err != nil {
		log.Printf("correlationID: %s failed to get launch queue url: %s", message.LaunchID, err)
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		log.Printf("correlationID: %s failed to marshal launch request: %s", message.LaunchID, err)
		return err
	}

	_, err = sqs_svc.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    urlResult.QueueUrl,
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		log.Printf("correlationID: %s failed to enqueue launch request: %s", message.LaunchID, err)
	}
	return err
}

// Should be started as background thread.
func PollForLaunchRequests() {
	urlResult, err := sqs_svc.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: aws.String(config.GetEnvConfigs().LaunchQueueName),
	})
	if err != nil {
		log.Fatalf("failed to get launch queue url: %s", err)
	}
	queueURL := urlResult.QueueUrl
	log.Printf("LAUNCH QUEUE URL: %s", *queueURL)
	for i := 0; i < config.GetEnvConfigs().MaxConsumers; i++ {
		go startConsumer(queueURL)
	}
}

func startConsumer(queueURL *string) {
	log.Printf("started launch consumer")
	for {
		err := consumeMessages(queueURL)
		time.Sleep(time.Duration(config.GetEnvConfigs().PollPeriodMilli) * time.Millisecond)
		if err != nil {
			log.Printf("failed to poll launch queue messages: %s", err)
		}
	}
}

func consumeMessages(queueURL *string) error {
	msgResult, err := sqs_svc.ReceiveMessage(&sqs.ReceiveMessageInput{
		AttributeNames: []*string{
			aws.String(sqs.MessageSystemAttributeNameSentTimestamp),
		},
		MessageAttributeNames: []*string{
			aws.String(sqs.QueueAttributeNameAll),
		},
		QueueUrl:            queueURL,
		MaxNumberOfMessages: aws.Int64(config.GetEnvConfigs().MaxMessagesPerPoll),
		VisibilityTimeout:   aws.Int64(config.GetEnvConfigs().PollVisibilityTimeoutSec),
		WaitTimeSeconds:     aws.Int64(config.GetEnvConfigs().PollWaitSec),
	})
	if err != nil {
		return err
	}
	if len(msgResult.Messages) > 0 {
		processMessages(msgResult.Messages, queueURL)
	}
	return err
}

func processMessages(messages []*sqs.Message, queueUrl *string) {
	var wg sync.WaitGroup
	for _, m := range messages {
		wg.Add(1)
		go asyncProcessMessage(m, queueUrl, &wg)
	}
	wg.Wait()
}

func asyncProcessMessage(message *sqs.Message, queueUrl *string, wg *sync.WaitGroup) {
	defer wg.Done()
	err := startLaunchFromMessage(message)
	if err != nil {
		log.Printf("unable to start launch for message: %s %s", *message.MessageId, err)
		return
	}
	err = ackMessage(message, queueUrl)
	if err != nil {
		log.Printf("unable to ack launch message: %s %s", *message.MessageId, err)
	}
}

func startLaunchFromMessage(message *sqs.Message) error {
	queueMessage, err := decode(message)
	if err != nil {
		return err
	}
	if len(queueMessage.LaunchID) == 0 {
		log.Printf("malformed launch message for payload: %+v", message)
		return fmt.Errorf("malformed launch message for payload: %+v", message)
	}
	log.Printf("correlationID: %s starting launch run", queueMessage.LaunchID)
	_, err = StartFromQueueMessage(queueMessage)
	return err
}

func ackMessage(message *sqs.Message, queueUrl *string) error {
	_, err := sqs_svc.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      queueUrl,
		ReceiptHandle: message.ReceiptHandle,
	})
	return err
}

func decode(message *sqs.Message) (models.LaunchQueueMessage, error) {
	var queueMessage models.LaunchQueueMessage
	err := json.Unmarshal([]byte(*message.Body), &queueMessage)
	if err != nil {
		log.Printf("failed to unmarshall launch message body: %s", err)
		return models.LaunchQueueMessage{}, err
	}
	return queueMessage, err
}
