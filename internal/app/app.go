package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jun/dreamlog/backend/internal/adapter"
	"github.com/jun/dreamlog/backend/internal/adapter/googlesheets"
	"github.com/jun/dreamlog/backend/internal/adapter/memory"
	"github.com/jun/dreamlog/backend/internal/auth"
	"github.com/jun/dreamlog/backend/internal/crypto"
	"github.com/jun/dreamlog/backend/internal/handler"
	"github.com/jun/dreamlog/backend/internal/journal"
	"github.com/jun/dreamlog/backend/internal/ledger"
	"github.com/jun/dreamlog/backend/internal/model"
	"github.com/jun/dreamlog/backend/internal/secret"
	"github.com/jun/dreamlog/backend/internal/store"
)

// App holds the dependencies for the Lambda function.
type App struct {
	authHandler      *handler.AuthHandler
	dreamHandler     *handler.DreamHandler
	referenceHandler *handler.ReferenceHandler
	apiGatewaySecret string
}

// NewApp initializes the application dependencies.
func NewApp(ctx context.Context) *App {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	devMode := os.Getenv("DEV_MODE") == "true"

	// DynamoDB Client (nil in DEV_MODE: stores fall back to in-memory)
	var dynamoClient *dynamodb.Client
	if devMode {
		fmt.Println("Using in-memory stores (DEV_MODE=true)")
	} else {
		dynamoClient = dynamodb.NewFromConfig(cfg)
	}

	// ---------- Secret Resolver ----------
	var resolver secret.Resolver
	if devMode {
		resolver = secret.NewEnvResolver()
		fmt.Println("Using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(cfg))
		fmt.Println("Using SSMResolver (SSM Parameter Store)")
	}

	googleClientSecretParam := os.Getenv("GOOGLE_CLIENT_SECRET_PARAM")
	if googleClientSecretParam == "" {
		googleClientSecretParam = "/dreamlog/google-client-secret"
	}
	googleClientSecret, err := resolver.GetSecret(ctx, googleClientSecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve GOOGLE_CLIENT_SECRET: %v", err)
	}

	jwtSecretParam := os.Getenv("JWT_SECRET_PARAM")
	if jwtSecretParam == "" {
		jwtSecretParam = "/dreamlog/jwt-secret"
	}
	jwtSecret, err := resolver.GetSecret(ctx, jwtSecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve JWT_SECRET: %v", err)
		jwtSecret = "default-dev-secret"
	}

	apiGatewaySecretParam := os.Getenv("API_GATEWAY_SECRET_PARAM")
	if apiGatewaySecretParam == "" {
		apiGatewaySecretParam = "/dreamlog/api-gateway-secret"
	}
	apiGatewaySecret, err := resolver.GetSecret(ctx, apiGatewaySecretParam)
	if err != nil {
		log.Printf("WARNING: failed to resolve API_GATEWAY_SECRET: %v", err)
	}

	// ---------- Reference Codec ----------
	var codec crypto.Codec
	if kmsKeyID := os.Getenv("KMS_KEY_ID"); kmsKeyID != "" {
		codec = crypto.NewKMSCodec(kms.NewFromConfig(cfg), kmsKeyID)
		fmt.Println("Using KMSCodec (KMS_KEY_ID set)")
	} else if devMode {
		codec = crypto.NewMockCodec()
		fmt.Println("Using MockCodec (DEV_MODE=true)")
	} else {
		encryptionKeyParam := os.Getenv("ENCRYPTION_KEY_PARAM")
		if encryptionKeyParam == "" {
			encryptionKeyParam = "/dreamlog/encryption-key"
		}
		encryptionKey, err := resolver.GetSecret(ctx, encryptionKeyParam)
		if err != nil {
			panic(fmt.Sprintf("unable to resolve ENCRYPTION_KEY: %v", err))
		}
		codec, err = crypto.NewAESCodec(encryptionKey)
		if err != nil {
			panic(fmt.Sprintf("unable to initialize AES codec: %v", err))
		}
	}

	// ---------- Stores ----------
	accountsTable := os.Getenv("USER_ACCOUNTS_TABLE")
	if accountsTable == "" {
		accountsTable = "UserAccounts"
	}
	accounts := store.NewAccountStore(dynamoClient, accountsTable)

	locksTable := os.Getenv("PROVISION_LOCKS_TABLE")
	if locksTable == "" {
		locksTable = "ProvisionLocks"
	}
	locker := store.NewProvisionLocker(dynamoClient, locksTable)

	// ---------- OAuth2 ----------
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		if devMode {
			redirectURL = "http://localhost:8080/auth/callback"
		} else {
			frontendURL := os.Getenv("FRONTEND_URL")
			if frontendURL == "" {
				frontendURL = "http://localhost:3000"
			}
			redirectURL = frontendURL + "/api/auth/callback"
		}
	}

	oauthConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: googleClientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/spreadsheets",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	oauthService := auth.NewOAuthService(oauthConfig)
	credentials := auth.NewCredentialManager(oauthConfig.ClientID, oauthConfig.ClientSecret)

	// ---------- Ledger ----------
	var ledgerProvider adapter.LedgerProvider
	if devMode {
		ledgerProvider = memory.NewProvider()
		fmt.Println("Using in-memory LedgerProvider (DEV_MODE=true)")
	} else {
		ledgerProvider = googlesheets.NewProvider()
	}

	title := os.Getenv("SPREADSHEET_TITLE")
	if title == "" {
		title = "Dream List"
	}
	sheetName := os.Getenv("SHEET_NAME")
	if sheetName == "" {
		sheetName = "Dreams"
	}
	schema := model.ParseHeaderSchema(os.Getenv("LEDGER_HEADER_SCHEMA"))

	tz := os.Getenv("LEDGER_TIMEZONE")
	if tz == "" {
		tz = "Asia/Tokyo"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("WARNING: unknown LEDGER_TIMEZONE %q, using UTC", tz)
		location = time.UTC
	}

	ledgerResolver := ledger.NewResolver(ledger.Config{
		Title:     title,
		SheetName: sheetName,
		Schema:    schema,
	})

	pipeline := journal.NewPipeline(accounts, locker, codec, credentials,
		ledgerProvider, ledgerResolver, sheetName, schema, location)

	return &App{
		authHandler:      handler.NewAuthHandler(oauthService, jwtSecret),
		dreamHandler:     handler.NewDreamHandler(pipeline, jwtSecret),
		referenceHandler: handler.NewReferenceHandler(accounts, codec, jwtSecret),
		apiGatewaySecret: apiGatewaySecret,
	}
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod

	fmt.Printf("Request: %s %s\n", method, path)

	// CORS Preflight
	if method == "OPTIONS" {
		return corsResponse(events.APIGatewayProxyResponse{StatusCode: 204}), nil
	}

	// Security: Verify Request Origin (CloudFront only)
	// Skip check for OPTIONS (preflight) and if DEV_MODE is true
	if os.Getenv("DEV_MODE") != "true" {
		if req.Headers["X-Origin-Verify"] != app.apiGatewaySecret && req.Headers["x-origin-verify"] != app.apiGatewaySecret {
			fmt.Printf("Security Block: Missing or invalid X-Origin-Verify header\n")
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusForbidden,
				Body:       "Forbidden: Access denied",
			}, nil
		}
	}

	// Strip /api prefix if present (for CloudFront proxying)
	if strings.HasPrefix(path, "/api") {
		path = strings.TrimPrefix(path, "/api")
	}

	// /auth
	if strings.HasPrefix(path, "/auth") {
		if path == "/auth/login" && method == "GET" {
			return corsResponse(must(app.authHandler.Login(ctx, req))), nil
		}
		if path == "/auth/callback" && method == "GET" {
			return corsResponse(must(app.authHandler.Callback(ctx, req))), nil
		}
		if path == "/auth/logout" && method == "POST" {
			return corsResponse(must(app.authHandler.Logout(ctx, req))), nil
		}
		if path == "/auth/user" && method == "GET" {
			return corsResponse(must(app.authHandler.GetUser(ctx, req))), nil
		}
	}

	// /dreams
	if path == "/dreams" && method == "POST" {
		return corsResponse(must(app.dreamHandler.SubmitDream(ctx, req))), nil
	}

	// /user/ledger-reference
	if path == "/user/ledger-reference" {
		if method == "GET" {
			return corsResponse(must(app.referenceHandler.GetReference(ctx, req))), nil
		}
		if method == "POST" {
			return corsResponse(must(app.referenceHandler.SetReference(ctx, req))), nil
		}
	}

	return corsResponse(events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("Not Found: %s %s", method, path),
	}), nil
}

// corsResponse adds CORS headers to an API Gateway response.
func corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = os.Getenv("FRONTEND_URL")
	if resp.Headers["Access-Control-Allow-Origin"] == "" {
		resp.Headers["Access-Control-Allow-Origin"] = "http://localhost:3000"
	}
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,POST,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, ignoring the error.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		fmt.Printf("Handler error: %v\n", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: "Internal Server Error"}
	}
	return resp
}
