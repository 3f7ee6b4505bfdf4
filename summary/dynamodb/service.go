// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
)

// client captures the methods of interest from the dynamoDB API. This
// should help mock API calls as well.
type client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// service defines the dynamodb specific DAO interface. It keeps
// instrumentation orthogonal to the queries.
type service interface {
	Load(ctx context.Context) (model.GlobalSummary, *types.ConsumedCapacity, error)
	Save(ctx context.Context, doc model.GlobalSummary) (*types.ConsumedCapacity, error)
}

// Dynamo DB attribute keys
const (
	idAttributeKey      = "id"
	versionAttributeKey = "version"
)

// storedSummary is one item of the table. The document is kept as JSON so
// the file and database backends store the same bytes.
type storedSummary struct {
	ID        string `dynamodbav:"id"`
	Version   int64  `dynamodbav:"version"`
	Document  string `dynamodbav:"document"`
	UpdatedAt int64  `dynamodbav:"updatedAt"`
}

// executor satisfies the service interface.
type executor struct {
	// c is the dynamodb client
	c client

	// tableName is the name of the dynamodb table
	tableName string

	// key is the partition key of the summary item
	key string

	// unreadable is set when the last load found an item whose version
	// could not be decoded. The next first-version save overwrites it.
	unreadable atomic.Bool
}

func (d *executor) Load(ctx context.Context) (model.GlobalSummary, *types.ConsumedCapacity, error) {
	out, err := d.c.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			idAttributeKey: &types.AttributeValueMemberS{Value: d.key},
		},
		ConsistentRead:         aws.Bool(true),
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	var consumedCapacity *types.ConsumedCapacity
	if out != nil {
		consumedCapacity = out.ConsumedCapacity
	}
	if err != nil {
		return model.GlobalSummary{}, consumedCapacity, err
	}
	if len(out.Item) == 0 {
		d.unreadable.Store(false)
		return model.GlobalSummary{}, consumedCapacity, summary.ErrNotFound
	}

	var item storedSummary
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		d.unreadable.Store(true)
		return model.GlobalSummary{}, consumedCapacity, fmt.Errorf("%w: %v", summary.ErrCorrupt, err)
	}
	d.unreadable.Store(false)

	var doc model.GlobalSummary
	if err := json.Unmarshal([]byte(item.Document), &doc); err != nil {
		return model.GlobalSummary{Version: item.Version}, consumedCapacity, fmt.Errorf("%w: %v", summary.ErrCorrupt, err)
	}
	doc.Version = item.Version
	return doc, consumedCapacity, nil
}

func (d *executor) Save(ctx context.Context, doc model.GlobalSummary) (*types.ConsumedCapacity, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(storedSummary{
		ID:        d.key,
		Version:   doc.Version,
		Document:  string(data),
		UpdatedAt: doc.LastUpdated.Unix(),
	})
	if err != nil {
		return nil, err
	}

	input := &dynamodb.PutItemInput{
		Item:                   av,
		TableName:              aws.String(d.tableName),
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	overwrite := doc.Version <= 1 && d.unreadable.Load()
	switch {
	case overwrite:
		// an undecodable version can never satisfy a condition
	case doc.Version <= 1:
		input.ConditionExpression = aws.String("attribute_not_exists(#v)")
		input.ExpressionAttributeNames = map[string]string{"#v": versionAttributeKey}
	default:
		input.ConditionExpression = aws.String("#v = :previous")
		input.ExpressionAttributeNames = map[string]string{"#v": versionAttributeKey}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":previous": &types.AttributeValueMemberN{Value: strconv.FormatInt(doc.Version-1, 10)},
		}
	}

	out, err := d.c.PutItem(ctx, input)
	var consumedCapacity *types.ConsumedCapacity
	if out != nil {
		consumedCapacity = out.ConsumedCapacity
	}
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return consumedCapacity, fmt.Errorf("%w: %v", summary.ErrVersionConflict, err)
		}
		return consumedCapacity, err
	}
	if overwrite {
		d.unreadable.Store(false)
	}
	return consumedCapacity, nil
}
