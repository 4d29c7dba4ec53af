package dal

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"

	configuration "github.com/adlaunch-core/v2/configuration"
)

var svc = dynamodb.New(configuration.GetAwsSession())
