/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbjournal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/storagemodels"
)

const topicPrefix = "TOPIC#"

// Entry is one change message stored in the journal table.
type Entry struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Topic     string `dynamodbav:"Topic"`
	Payload   string `dynamodbav:"Payload"`
	CreatedAt string `dynamodbav:"CreatedAt"`

	Meta storagemodels.StreamMeta `dynamodbav:"-"`
}

// Created parses CreatedAt.
func (e Entry) Created() (time.Time, error) {
	dt, err := strfmt.ParseDateTime(e.CreatedAt)
	return time.Time(dt), err
}

// Journal implements notify.Bus by appending change URIs to a DynamoDB table
// (partition key PK = "TOPIC#<topic>", sort key SK ordered by publish time)
// and by polling that table for subscribers. Unlike a pub/sub channel, the
// journal keeps history which late observers can Replay.
type Journal struct {
	client    API
	tableName string
	options   storagemodels.StreamOptions
	now       func() time.Time
}

var _ notify.Bus = (*Journal)(nil)

// New returns a Journal over tableName.
func New(client API, tableName string, opts ...storagemodels.StreamOption) *Journal {
	var options = storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Journal{client: client, tableName: tableName, options: options, now: time.Now}
}

// sortKey orders entries by time. The random suffix keeps keys of entries
// published in the same nanosecond distinct.
func sortKey(t time.Time) string {
	return fmt.Sprintf("%020d#%s", t.UnixNano(), uuid.NewString())
}

// Publish appends payload to the journal of topic.
func (j *Journal) Publish(ctx context.Context, topic, payload string) error {
	var now = j.now()
	var entry = Entry{
		PK:        topicPrefix + topic,
		SK:        sortKey(now),
		Topic:     topic,
		Payload:   payload,
		CreatedAt: strfmt.DateTime(now.UTC()).String(),
	}
	av, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	return j.withRetry(ctx, func(ctx context.Context) error {
		_, err := j.client.PutItem(ctx, &sdk.PutItemInput{
			TableName: &j.tableName,
			Item:      av,
		})
		if err != nil {
			return fmt.Errorf("PutItem failed: %w", err)
		}
		return nil
	})
}

// Replay calls fn for each entry of topic published after since, oldest
// first. It returns the sort key of the last entry visited, which can be
// passed to ReplayAfter to resume.
func (j *Journal) Replay(ctx context.Context, topic string, since time.Time, fn func(Entry) error) (string, error) {
	return j.ReplayAfter(ctx, topic, fmt.Sprintf("%020d", since.UnixNano()), fn)
}

// ReplayAfter is like Replay, but starts strictly after the sort key afterSK.
func (j *Journal) ReplayAfter(ctx context.Context, topic, afterSK string, fn func(Entry) error) (string, error) {
	var keyCond = "PK = :pk AND SK > :sk"
	var input = &sdk.QueryInput{
		TableName:              &j.tableName,
		KeyConditionExpression: &keyCond,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: topicPrefix + topic},
			":sk": &types.AttributeValueMemberS{Value: afterSK},
		},
		Limit:            aws.Int32(j.options.PageSize),
		ScanIndexForward: aws.Bool(true),
	}

	var last = afterSK
	var index int64
	var pageNumber int

	for {
		var out *sdk.QueryOutput
		var err = j.withRetry(ctx, func(ctx context.Context) error {
			var qerr error
			out, qerr = j.client.Query(ctx, input)
			return qerr
		})
		if err != nil {
			return last, fmt.Errorf("query failed: %w", err)
		}
		pageNumber++

		for _, item := range out.Items {
			var entry Entry
			if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
				return last, fmt.Errorf("failed to unmarshal journal entry: %w", err)
			}
			entry.Meta = storagemodels.StreamMeta{
				Index:      index,
				PageNumber: pageNumber,
				Timestamp:  j.now(),
			}
			index++

			if err := fn(entry); err != nil {
				return last, err
			}
			last = entry.SK
		}

		if len(out.LastEvaluatedKey) == 0 {
			return last, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Subscribe polls the journal of topic for entries published from now on and
// passes their payloads to handler.
func (j *Journal) Subscribe(ctx context.Context, topic string, handler func(payload string)) (notify.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	var sub = &subscription{cancel: cancel}
	var start = fmt.Sprintf("%020d", j.now().UnixNano())

	sub.wg.Add(1)
	go j.pollWorker(ctx, &sub.wg, topic, start, handler)
	return sub, nil
}

func (j *Journal) pollWorker(ctx context.Context, wg *sync.WaitGroup, topic, after string, handler func(string)) {
	defer wg.Done()

	for {
		var last, err = j.ReplayAfter(ctx, topic, after, func(e Entry) error {
			handler(e.Payload)
			return nil
		})
		after = last

		if err != nil && ctx.Err() == nil {
			if j.options.ErrorHandler != nil && !j.options.ErrorHandler(err) {
				log.WithFields(log.Fields{"err": err, "topic": topic}).Error("journal subscription stopped")
				return
			}
			log.WithFields(log.Fields{"err": err, "topic": topic}).Warn("journal poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(j.options.PollInterval):
		}
	}
}

// withRetry runs fn, retrying errors which DynamoDB reports as transient.
func (j *Journal) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var base = j.options.RetryBackoff
	if base <= 0 {
		base = time.Millisecond
	}
	var backoff = retry.WithMaxRetries(uint64(j.options.MaxRetries), retry.NewFibonacci(base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err = fn(ctx)
		if err != nil && isRetryableError(unwrapAll(err)) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok || u.Unwrap() == nil {
			return err
		}
		err = u.Unwrap()
	}
}

type subscription struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Close stops polling and waits for the worker to exit.
func (s *subscription) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
