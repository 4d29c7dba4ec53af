package launch

import (
	"encoding/json"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	configuration "github.com/adlaunch-core/v2/configuration"
	tables "github.com/adlaunch-core/v2/dal/tables/v1"
)

var snsSvc = sns.New(configuration.GetAwsSession())

type snsMessage struct {
	Default string `json:"default"`
}

// SNSLaunchNotifier publishes terminal launch outcomes to the launch topic.
// Subscribers filter on the Phase attribute (COMPLETE vs FAILED alerting).
type SNSLaunchNotifier struct{}

func (SNSLaunchNotifier) NotifyLaunchOutcome(snapshot tables.LaunchSnapshot) error {
	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("error marshalling launch outcome: %s", err)
		return err
	}
	wrapper := snsMessage{
		Default: string(snapshotBytes),
	}
	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		log.Printf("error marshalling launch outcome wrapper: %s", err)
		return err
	}
	messageBody := string(wrapperBytes)
	topicArn := configuration.GetEnvConfigs().SNSLaunchTopic
	_, err = snsSvc.Publish(&sns.PublishInput{
		Message:          &messageBody,
		TopicArn:         &topicArn,
		MessageStructure: aws.String("json"),

		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"Phase": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(snapshot.Phase)),
			},
		},
	})
	if err != nil {
		log.Printf("failed publishing to launch topic: %s", err)
		return err
	}

	return err
}
