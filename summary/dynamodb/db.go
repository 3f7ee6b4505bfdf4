// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/db/metric"
)

const (
	defaultTable      = "causeway"
	defaultKey        = "summary"
	defaultMaxRetries = 3
)

type Config struct {
	Table      string
	Key        string
	Endpoint   string
	Region     string
	MaxRetries int
	AccessKey  string
	SecretKey  string
}

// DynamoClient keeps the summary document as a single versioned item.
type DynamoClient struct {
	s        service
	measures metric.Measures
	now      func() time.Time
}

func NewDynamoDB(config Config, measures metric.Measures) (*DynamoClient, error) {
	config = validateConfig(config)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(config.MaxRetries),
	}
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}
	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	c := dynamodb.NewFromConfig(awsConfig, func(o *dynamodb.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})
	return newDynamoClient(&executor{c: c, tableName: config.Table, key: config.Key}, measures), nil
}

func newDynamoClient(s service, measures metric.Measures) *DynamoClient {
	return &DynamoClient{s: s, measures: measures, now: time.Now}
}

func (d *DynamoClient) Load(ctx context.Context) (model.GlobalSummary, error) {
	start := d.now()
	doc, cc, err := d.s.Load(ctx)
	d.update(summary.ReadType, start, cc, err)
	return doc, err
}

func (d *DynamoClient) Save(ctx context.Context, doc model.GlobalSummary) error {
	start := d.now()
	cc, err := d.s.Save(ctx, doc)
	d.update(summary.WriteType, start, cc, err)
	return err
}

func (d *DynamoClient) update(queryType string, start time.Time, cc *types.ConsumedCapacity, err error) {
	d.measures.QueryDuration.With(summary.TypeLabel, queryType).Observe(d.now().Sub(start).Seconds())
	if err != nil && !isExpected(err) {
		d.measures.QueryFailureCount.With(summary.TypeLabel, queryType).Add(1.0)
	} else {
		d.measures.QuerySuccessCount.With(summary.TypeLabel, queryType).Add(1.0)
	}

	if cc == nil {
		return
	}
	if cc.CapacityUnits != nil {
		d.measures.CapacityUnitConsumedCount.With(summary.TypeLabel, queryType).Add(*cc.CapacityUnits)
	}
	if cc.ReadCapacityUnits != nil {
		d.measures.ReadCapacityUnitConsumedCount.With(summary.TypeLabel, queryType).Add(*cc.ReadCapacityUnits)
	}
	if cc.WriteCapacityUnits != nil {
		d.measures.WriteCapacityUnitConsumedCount.With(summary.TypeLabel, queryType).Add(*cc.WriteCapacityUnits)
	}
}

func validateConfig(config Config) Config {
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.Key == "" {
		config.Key = defaultKey
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	return config
}
