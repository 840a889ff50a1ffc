package idp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	sc "github.com/lifeledger/lifeledger/internal/server/config"
)

// cognitoAPI is the subset of the Cognito client used by the adapter.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, in *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, in *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cognitoidentityprovider.ResendConfirmationCodeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ResendConfirmationCodeOutput, error)
	ForgotPassword(ctx context.Context, in *cognitoidentityprovider.ForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cognitoidentityprovider.ConfirmForgotPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmForgotPasswordOutput, error)
	GlobalSignOut(ctx context.Context, in *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
}

// Cognito implements Provider over a user pool app client with a secret.
type Cognito struct {
	client       cognitoAPI
	clientID     string
	clientSecret string
}

// NewCognito builds the adapter from server config. Initialization happens
// once at startup; the adapter is then passed by reference into handlers.
func NewCognito(ctx context.Context, cfg *sc.Config) (*Cognito, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.CognitoRegion))
	if err != nil {
		return nil, fmt.Errorf("cognito config error: %w", err)
	}
	return &Cognito{
		client:       cognitoidentityprovider.NewFromConfig(awsCfg),
		clientID:     cfg.CognitoClientID,
		clientSecret: cfg.CognitoClientSecret,
	}, nil
}

// secretHash computes the keyed hash the pool requires with every call:
// base64(HMAC-SHA256(clientSecret, username + clientID)).
func (c *Cognito) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Cognito) SignIn(ctx context.Context, username, password string) (*Credentials, error) {
	out, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME":    username,
			"PASSWORD":    password,
			"SECRET_HASH": c.secretHash(username),
		},
	})
	if err != nil {
		return nil, translate(err)
	}

	if out.ChallengeName != "" {
		return nil, &Error{Code: CodeChallengeRequired, Message: string(out.ChallengeName)}
	}

	result := out.AuthenticationResult
	if result == nil || result.IdToken == nil || result.AccessToken == nil || result.RefreshToken == nil {
		return nil, &Error{Code: CodeUnknown, Message: "authentication result missing tokens"}
	}

	return &Credentials{
		IDToken:      *result.IdToken,
		AccessToken:  *result.AccessToken,
		RefreshToken: *result.RefreshToken,
	}, nil
}

func (c *Cognito) SignUp(ctx context.Context, username, password, email string) (bool, error) {
	out, err := c.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: aws.String(c.secretHash(username)),
		Username:   aws.String(username),
		Password:   aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("preferred_username"), Value: aws.String(username)},
		},
	})
	if err != nil {
		return false, translate(err)
	}
	return out.UserConfirmed, nil
}

func (c *Cognito) ConfirmSignUp(ctx context.Context, username, code string) error {
	_, err := c.client.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		SecretHash:       aws.String(c.secretHash(username)),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

func (c *Cognito) ResendCode(ctx context.Context, username string) error {
	_, err := c.client.ResendConfirmationCode(ctx, &cognitoidentityprovider.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: aws.String(c.secretHash(username)),
		Username:   aws.String(username),
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

func (c *Cognito) ForgotPassword(ctx context.Context, username string) error {
	_, err := c.client.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId:   aws.String(c.clientID),
		SecretHash: aws.String(c.secretHash(username)),
		Username:   aws.String(username),
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

func (c *Cognito) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	_, err := c.client.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(c.clientID),
		SecretHash:       aws.String(c.secretHash(username)),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

func (c *Cognito) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.client.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

func (c *Cognito) Refresh(ctx context.Context, refreshToken, username string) (string, string, error) {
	out, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
			"SECRET_HASH":   c.secretHash(username),
		},
	})
	if err != nil {
		return "", "", translate(err)
	}

	result := out.AuthenticationResult
	if result == nil || result.IdToken == nil || result.AccessToken == nil {
		return "", "", &Error{Code: CodeUnknown, Message: "refresh result missing tokens"}
	}

	return *result.IdToken, *result.AccessToken, nil
}

// translate maps typed SDK errors onto the closed taxonomy. Unrecognized
// failures collapse to CodeUnknown; their detail stays available for logs.
func translate(err error) error {
	var (
		notAuthorized    *types.NotAuthorizedException
		userNotFound     *types.UserNotFoundException
		userNotConfirmed *types.UserNotConfirmedException
		usernameExists   *types.UsernameExistsException
		invalidPassword  *types.InvalidPasswordException
		invalidParameter *types.InvalidParameterException
		codeMismatch     *types.CodeMismatchException
		codeExpired      *types.ExpiredCodeException
		limitExceeded    *types.LimitExceededException
		tooManyRequests  *types.TooManyRequestsException
	)

	switch {
	case errors.As(err, &notAuthorized):
		return &Error{Code: CodeInvalidCredentials, Message: notAuthorized.ErrorMessage()}
	case errors.As(err, &userNotFound):
		return &Error{Code: CodeUserNotFound, Message: userNotFound.ErrorMessage()}
	case errors.As(err, &userNotConfirmed):
		return &Error{Code: CodeUserNotConfirmed, Message: userNotConfirmed.ErrorMessage()}
	case errors.As(err, &usernameExists):
		return &Error{Code: CodeUsernameExists, Message: usernameExists.ErrorMessage()}
	case errors.As(err, &invalidPassword):
		return &Error{Code: CodeInvalidPassword, Message: invalidPassword.ErrorMessage()}
	case errors.As(err, &invalidParameter):
		return &Error{Code: CodeInvalidParameter, Message: invalidParameter.ErrorMessage()}
	case errors.As(err, &codeMismatch):
		return &Error{Code: CodeCodeMismatch, Message: codeMismatch.ErrorMessage()}
	case errors.As(err, &codeExpired):
		return &Error{Code: CodeCodeExpired, Message: codeExpired.ErrorMessage()}
	case errors.As(err, &limitExceeded):
		return &Error{Code: CodeRateLimited, Message: limitExceeded.ErrorMessage()}
	case errors.As(err, &tooManyRequests):
		return &Error{Code: CodeRateLimited, Message: tooManyRequests.ErrorMessage()}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &Error{Code: CodeUnknown, Message: apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()}
	}
	return &Error{Code: CodeUnknown, Message: err.Error()}
}
