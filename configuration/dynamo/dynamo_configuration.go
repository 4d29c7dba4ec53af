package dynamo

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	aws_configuration "github.com/adlaunch-core/v2/configuration"

	"log"
	"strings"
)

const TABLE_LAUNCH_SNAPSHOT = "LaunchSnapshot"
const TABLE_CAMPAIGN_DRAFT = "CampaignDraft"
const LAUNCH_SNAPSHOT_GSI_NAME = "ByCampaign" // For listing launch history per campaign.
const MAX_QPS_ON_DEMAND_GSI = 50

func Init() {
	log.Printf("Initializing DynamoDB Tables")

	svc := dynamodb.New(aws_configuration.GetAwsSession())
	createLaunchSnapshotTable(svc)
	createCampaignDraftTable(svc)
}

// PK: LaunchID (also the pipeline correlation ID).
// Rows are write-once: a snapshot is only produced when a launch reaches a
// terminal phase, and the put is conditional on the key not existing.
// GSI by CampaignID + LaunchedAtEpochMilli supports the launch-history view.
func createLaunchSnapshotTable(svc *dynamodb.DynamoDB) {
	tableName := TABLE_LAUNCH_SNAPSHOT
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("LaunchID"),
				AttributeType: aws.String("S"),
			},
			{
				AttributeName: aws.String("CampaignID"),
				AttributeType: aws.String("S"),
			},
			{
				AttributeName: aws.String("LaunchedAtEpochMilli"),
				AttributeType: aws.String("N"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("LaunchID"),
				KeyType:       aws.String("HASH"),
			},
		},
		GlobalSecondaryIndexes: []*dynamodb.GlobalSecondaryIndex{
			{
				IndexName: aws.String(LAUNCH_SNAPSHOT_GSI_NAME),
				KeySchema: []*dynamodb.KeySchemaElement{
					{
						AttributeName: aws.String("CampaignID"),
						KeyType:       aws.String("HASH"),
					},
					{
						AttributeName: aws.String("LaunchedAtEpochMilli"),
						KeyType:       aws.String("RANGE"),
					},
				},
				Projection: &dynamodb.Projection{
					ProjectionType: aws.String(dynamodb.ProjectionTypeAll),
				},
				OnDemandThroughput: &dynamodb.OnDemandThroughput{
					MaxReadRequestUnits:  aws.Int64(MAX_QPS_ON_DEMAND_GSI),
					MaxWriteRequestUnits: aws.Int64(MAX_QPS_ON_DEMAND_GSI),
				},
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		TableName:   aws.String(tableName),
	}
	createTable(svc, input, tableName)
}

// PK: CampaignID. Persisted draft fields; the setup UI reads these once per
// session and writes them back when a launch is submitted.
func createCampaignDraftTable(svc *dynamodb.DynamoDB) {
	tableName := TABLE_CAMPAIGN_DRAFT
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("CampaignID"),
				AttributeType: aws.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("CampaignID"),
				KeyType:       aws.String("HASH"),
			},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		TableName:   aws.String(tableName),
	}
	createTable(svc, input, tableName)
}

func createTable(svc *dynamodb.DynamoDB, input *dynamodb.CreateTableInput, tableName string) {
	_, err := svc.CreateTable(input)
	if tableAlreadyExists(err) {
		log.Println("Table already exists", tableName)
	} else if err != nil {
		log.Fatalf("Got error calling CreateTable: %s", err)
	} else {
		log.Println("Created the table", tableName)
	}
}

func tableAlreadyExists(err error) bool {
	if err != nil && strings.Contains(err.Error(), "ResourceInUseException") {
		return true
	}
	return false
}
