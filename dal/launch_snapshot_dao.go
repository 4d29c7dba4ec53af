package dal

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	dynamo_configuration "github.com/adlaunch-core/v2/configuration/dynamo"
	launch_table "github.com/adlaunch-core/v2/dal/tables/v1"

	"log"
)

// WriteLaunchSnapshot persists the terminal record of one launch attempt.
// The put is conditional on the LaunchID not existing: a snapshot is
// write-once, and a duplicate attempt is treated as already-written.
func WriteLaunchSnapshot(item launch_table.LaunchSnapshot) error {
	if item.LaunchedAtEpochMilli == 0 {
		item.LaunchedAtEpochMilli = time.Now().UnixMilli()
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		log.Printf("correlationID: %s got error marshalling launch snapshot: %s", item.LaunchID, err)
		return err
	}
	tableName := dynamo_configuration.TABLE_LAUNCH_SNAPSHOT

	input := &dynamodb.PutItemInput{
		Item:                av,
		TableName:           aws.String(tableName),
		ConditionExpression: aws.String("attribute_not_exists(LaunchID)"),
	}
	_, err = svc.PutItem(input)
	if isConditionalCheckFailed(err) {
		log.Printf("correlationID: %s snapshot already written, skipping", item.LaunchID)
		return nil
	}
	if err != nil {
		log.Printf("correlationID: %s got error calling PutItem snapshot: %s", item.LaunchID, err)
		return err
	}

	return err
}

func GetLaunchSnapshot(launchId string) (launch_table.LaunchSnapshot, error) {
	result, err := svc.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(dynamo_configuration.TABLE_LAUNCH_SNAPSHOT),
		Key: map[string]*dynamodb.AttributeValue{
			"LaunchID": {
				S: aws.String(launchId),
			},
		},
	})

	resultItem := launch_table.LaunchSnapshot{}
	if err != nil {
		log.Printf("got error calling GetItem launch snapshot: %s", err)
		return resultItem, err
	}

	err = dynamodbattribute.UnmarshalMap(result.Item, &resultItem)
	if err != nil {
		log.Printf("error unmarshalling launch snapshot: %s", err)
		return resultItem, err
	}

	return resultItem, err
}

// Launch history for a campaign, newest first.
func ListLaunchSnapshotsByCampaign(campaignId string, limit int64) ([]launch_table.LaunchSnapshot, error) {
	resultItems := []launch_table.LaunchSnapshot{}
	result, err := svc.Query(&dynamodb.QueryInput{
		TableName:              aws.String(dynamo_configuration.TABLE_LAUNCH_SNAPSHOT),
		IndexName:              aws.String(dynamo_configuration.LAUNCH_SNAPSHOT_GSI_NAME),
		KeyConditionExpression: aws.String("CampaignID = :campaignId"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":campaignId": {
				S: aws.String(campaignId),
			},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int64(limit),
	})
	if err != nil {
		log.Printf("got error querying launch snapshots by campaign: %s", err)
		return resultItems, err
	}

	err = dynamodbattribute.UnmarshalListOfMaps(result.Items, &resultItems)
	if err != nil {
		log.Printf("error unmarshalling launch snapshot list: %s", err)
		return resultItems, err
	}

	return resultItems, err
}

func isConditionalCheckFailed(err error) bool {
	if err == nil {
		return false
	}
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
	}
	return false
}
