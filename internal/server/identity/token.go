package identity

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jackc/pgx/v5"
)

// TokenSource yields a short-lived secret used as the database password.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource always returns the same token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

var buildAuthToken = auth.BuildAuthToken

// RDSTokenSource mints IAM database authentication tokens. A fresh token is
// built for every call; tokens are valid for 15 minutes, far longer than a
// connection handshake.
type RDSTokenSource struct {
	Endpoint    string
	Region      string
	User        string
	Credentials aws.CredentialsProvider
}

// NewRDSTokenSource takes host, port and user from the DSN.
func NewRDSTokenSource(dsn, region string, creds aws.CredentialsProvider) (*RDSTokenSource, error) {
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cc.User == "" {
		return nil, fmt.Errorf("dsn has no user")
	}
	return &RDSTokenSource{
		Endpoint:    net.JoinHostPort(cc.Host, strconv.Itoa(int(cc.Port))),
		Region:      region,
		User:        cc.User,
		Credentials: creds,
	}, nil
}

func (s *RDSTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := buildAuthToken(ctx, s.Endpoint, s.Region, s.User, s.Credentials)
	if err != nil {
		return "", fmt.Errorf("build rds auth token: %w", err)
	}
	return tok, nil
}
