package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// OAuth types

// TokenRequest is the body of the code exchange
type TokenRequest struct {
	AuthorizationCode string `json:"authorizationCode" example:"3f9c...e1"`
}

// TokenResponse carries the access token minted for a redeemed code
type TokenResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token" example:"9a1b...77"`
}

// ProfileResponse is the public profile of the token's user
type ProfileResponse struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FirstName string `json:"first_name" example:"Ana"`
	LastName  string `json:"last_name" example:"Souza"`
	Email     string `json:"email" example:"ana@example.com"`
}

// SuccessResponse represents an empty acknowledgement
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// Application types

// ValidateApplicationRequest carries the client credentials of a relying application
type ValidateApplicationRequest struct {
	AppID        string `json:"appId" example:"550e8400-e29b-41d4-a716-446655440000"`
	ClientSecret string `json:"clientSecret" example:"sk_4c1d..."`
}

// ApplicationData describes a registered relying application
type ApplicationData struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string `json:"name" example:"Loja Exemplo"`
	Domain      string `json:"domain" example:"loja.example.com"`
	RedirectURL string `json:"redirect_url" example:"https://loja.example.com/auth/callback"`
}

// ValidateApplicationResponse returns the application and its hand-off ticket
type ValidateApplicationResponse struct {
	Success          bool            `json:"success" example:"true"`
	Application      ApplicationData `json:"application"`
	HandOff          string          `json:"hand_off" example:"eyJhbGciOiJIUzI1NiIs..."`
	HandOffExpiresAt string          `json:"hand_off_expires_at" example:"2024-01-01T00:10:00Z"`
}

// Health types

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Sorria Face Login API",
		Version:     "v1.0.0",
		Description: "Passwordless login by face and smile gesture. Relying applications receive an authorization code and exchange it for an access token.",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/oauth/token - Exchange authorization code
		endpoint.New(
			endpoint.POST,
			"/oauth/token",
			endpoint.WithTags("OAuth"),
			endpoint.WithSummary("Exchange an authorization code for an access token"),
			endpoint.WithDescription("Redeems a code issued after a successful face login. A code is redeemable once, within the first quarter of its lifetime."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(TokenRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TokenResponse{}, "200", "Code redeemed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "MISSING_AUTHORIZATION_CODE", Message: "Authorization code is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "AUTHORIZATION_CODE_EXPIRED", Message: "Authorization code expired"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "AUTHORIZATION_CODE_NOT_FOUND", Message: "Authorization code not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many requests"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/oauth/profile - Token owner's profile
		endpoint.New(
			endpoint.GET,
			"/oauth/profile",
			endpoint.WithTags("OAuth"),
			endpoint.WithSummary("Fetch the profile of the access token's user"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ProfileResponse{}, "200", "Profile"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing access token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// POST /v1/oauth/revoke - Revoke access token
		endpoint.New(
			endpoint.POST,
			"/oauth/revoke",
			endpoint.WithTags("OAuth"),
			endpoint.WithSummary("Revoke the presented access token"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SuccessResponse{}, "200", "Token revoked"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing access token"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}}),
		),

		// POST /v1/applications/validate - Validate client credentials
		endpoint.New(
			endpoint.POST,
			"/applications/validate",
			endpoint.WithTags("Applications"),
			endpoint.WithSummary("Validate a relying application's client secret"),
			endpoint.WithDescription("Returns the application and a short-lived hand-off ticket used to open the login capture socket."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ValidateApplicationRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ValidateApplicationResponse{}, "200", "Credentials valid"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_CLIENT_CREDENTIALS", Message: "Invalid application credentials"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many requests"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/capture/login - Login capture socket
		endpoint.New(
			endpoint.GET,
			"/capture/login",
			endpoint.WithTags("Capture"),
			endpoint.WithSummary("Open the login capture WebSocket"),
			endpoint.WithDescription("Binary messages are camera frames; text messages are {\"type\":\"captcha\",\"token\":...} or {\"type\":\"retry\"}. The server sends status, progress, hint, restarted, succeeded and failed events."),
			endpoint.WithParams(
				parameter.StrParam("hand_off", parameter.Query, parameter.WithDescription("Ticket returned by /applications/validate (required)")),
				parameter.StrParam("redirect_url", parameter.Query, parameter.WithDescription("Redirect on the application's domain (default: registered redirect)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_HAND_OFF", Message: "Hand-off ticket is invalid or expired"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),

		// GET /v1/capture/register - Enrollment capture socket
		endpoint.New(
			endpoint.GET,
			"/capture/register",
			endpoint.WithTags("Capture"),
			endpoint.WithSummary("Open the enrollment capture WebSocket"),
			endpoint.WithDescription("Same protocol as /capture/login. Three smiles are captured and stored as the user's face template."),
			endpoint.WithParams(
				parameter.StrParam("user_id", parameter.Query, parameter.WithDescription("User to enroll (required)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(struct{}{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "TEMPLATE_ALREADY_EXISTS", Message: "A face template is already enrolled for this user"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
