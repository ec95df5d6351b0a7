package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jun/dreamlog/backend/internal/model"
)

// AccountStore implements ReferenceStore on DynamoDB, one item per
// email. With a nil client it falls back to an in-process map, which
// is what tests and DEV_MODE use.
type AccountStore struct {
	dynamoClient *dynamodb.Client
	tableName    string

	// In-memory fallback
	accounts map[string]model.UserAccount
	mu       sync.RWMutex
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(dynamoClient *dynamodb.Client, tableName string) *AccountStore {
	return &AccountStore{
		dynamoClient: dynamoClient,
		tableName:    tableName,
		accounts:     make(map[string]model.UserAccount),
	}
}

// Get retrieves the account row for the identity.
func (s *AccountStore) Get(ctx context.Context, email string) (*model.UserAccount, error) {
	if s.dynamoClient == nil {
		s.mu.RLock()
		account, ok := s.accounts[email]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		return &account, nil
	}

	out, err := s.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var account model.UserAccount
	if err := attributevalue.UnmarshalMap(out.Item, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user account: %w", err)
	}
	return &account, nil
}

// Upsert inserts or updates the row for the identity. A nil encrypted
// reference clears the stored blob; the row itself is kept.
func (s *AccountStore) Upsert(ctx context.Context, email string, encrypted *string) error {
	now := time.Now()

	if s.dynamoClient == nil {
		s.mu.Lock()
		account, ok := s.accounts[email]
		if !ok {
			account = model.UserAccount{Email: email, CreatedAt: now}
		}
		account.EncryptedSpreadsheetID = encrypted
		account.UpdatedAt = now
		s.accounts[email] = account
		s.mu.Unlock()
		return nil
	}

	// Preserve created_at on update.
	createdAt := now
	if existing, err := s.Get(ctx, email); err == nil {
		createdAt = existing.CreatedAt
	}

	account := model.UserAccount{
		Email:                  email,
		EncryptedSpreadsheetID: encrypted,
		CreatedAt:              createdAt,
		UpdatedAt:              now,
	}

	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return fmt.Errorf("failed to marshal user account: %w", err)
	}

	_, err = s.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save account to DynamoDB: %w", err)
	}

	return nil
}
