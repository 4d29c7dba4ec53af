package dal

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	dynamo_configuration "github.com/adlaunch-core/v2/configuration/dynamo"
	launch_table "github.com/adlaunch-core/v2/dal/tables/v1"

	"log"
)

func GetCampaignDraftFields(campaignId string) (launch_table.CampaignDraftFields, error) {
	result, err := svc.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(dynamo_configuration.TABLE_CAMPAIGN_DRAFT),
		Key: map[string]*dynamodb.AttributeValue{
			"CampaignID": {
				S: aws.String(campaignId),
			},
		},
	})

	resultItem := launch_table.CampaignDraftFields{}
	if err != nil {
		log.Printf("got error calling GetItem campaign draft: %s", err)
		return resultItem, err
	}

	err = dynamodbattribute.UnmarshalMap(result.Item, &resultItem)
	if err != nil {
		log.Printf("error unmarshalling campaign draft: %s", err)
		return resultItem, err
	}

	return resultItem, err
}

func SaveCampaignDraftFields(item launch_table.CampaignDraftFields) error {
	item.UpdatedAtEpochMilli = time.Now().UnixMilli()
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		log.Printf("got error marshalling campaign draft: %s", err)
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(dynamo_configuration.TABLE_CAMPAIGN_DRAFT),
	}
	_, err = svc.PutItem(input)
	if err != nil {
		log.Printf("got error calling PutItem campaign draft: %s", err)
		return err
	}

	return err
}
