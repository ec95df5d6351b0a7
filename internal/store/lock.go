package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jun/dreamlog/backend/internal/model"
)

const DefaultLockTTL = 1 * time.Minute

// Locker serializes spreadsheet provisioning per user identity. Two
// concurrent first-time requests from the same user would otherwise
// each create a spreadsheet and race on the final upsert, orphaning
// one of them.
type Locker interface {
	// Acquire takes the provisioning lock for the identity, blocking
	// concurrent holders until release or TTL expiry.
	Acquire(ctx context.Context, email string) error

	// Release drops the lock. Safe to call on an expired lock.
	Release(ctx context.Context, email string) error
}

// ProvisionLocker implements Locker on a DynamoDB table with a TTL
// attribute. With a nil client it degrades to a process-local mutex
// map, which is sufficient for a single dev server.
type ProvisionLocker struct {
	client      *dynamodb.Client
	tableName   string
	ttlDuration time.Duration

	// In-memory fallback
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProvisionLocker creates a new ProvisionLocker.
func NewProvisionLocker(client *dynamodb.Client, tableName string) *ProvisionLocker {
	return &ProvisionLocker{
		client:      client,
		tableName:   tableName,
		ttlDuration: DefaultLockTTL,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (l *ProvisionLocker) localLock(email string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[email]
	if !ok {
		m = &sync.Mutex{}
		l.locks[email] = m
	}
	return m
}

// Acquire takes the lock, retrying while another request holds it.
// The conditional put succeeds when no lock item exists or the
// existing one has expired.
func (l *ProvisionLocker) Acquire(ctx context.Context, email string) error {
	if l.client == nil {
		l.localLock(email).Lock()
		return nil
	}

	for {
		now := time.Now().Unix()
		lock := model.ProvisionLock{
			Email:     email,
			ExpiresAt: now + int64(l.ttlDuration.Seconds()),
		}

		item, err := attributevalue.MarshalMap(lock)
		if err != nil {
			return fmt.Errorf("failed to marshal lock: %w", err)
		}

		_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(l.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(email) OR expires_at < :now"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			},
		})
		if err == nil {
			return nil
		}

		var condFailed *types.ConditionalCheckFailedException
		if !errors.As(err, &condFailed) {
			return fmt.Errorf("failed to acquire provisioning lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// Release drops the lock item.
func (l *ProvisionLocker) Release(ctx context.Context, email string) error {
	if l.client == nil {
		l.localLock(email).Unlock()
		return nil
	}

	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to release provisioning lock: %w", err)
	}
	return nil
}
