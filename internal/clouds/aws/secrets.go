package aws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

type SecretsManagerAPI interface {
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

type SecretsStore struct {
	sm SecretsManagerAPI
}

func NewSecretsStore(cfg awssdk.Config) *SecretsStore {
	return &SecretsStore{sm: secretsmanager.NewFromConfig(cfg)}
}

// PutSecret creates the secret or stores value as its new current version. It returns the
// secret ARN.
func (s *SecretsStore) PutSecret(ctx context.Context, name, value, description string) (string, error) {
	_, err := s.sm.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{SecretId: &name})

	var notFound *types.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		slog.InfoContext(ctx, "creating secret", "name", name)
		out, err := s.sm.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         &name,
			SecretString: &value,
			Description:  &description,
		})
		if err != nil {
			return "", fmt.Errorf("creating secret %s: %w", name, err)
		}
		return awssdk.ToString(out.ARN), nil
	case err != nil:
		return "", fmt.Errorf("describing secret %s: %w", name, err)
	}

	slog.InfoContext(ctx, "storing new secret version", "name", name)
	out, err := s.sm.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     &name,
		SecretString: &value,
	})
	if err != nil {
		return "", fmt.Errorf("putting secret value %s: %w", name, err)
	}

	return awssdk.ToString(out.ARN), nil
}
