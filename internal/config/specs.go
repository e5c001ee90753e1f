package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	KratosPublicURL string `envconfig:"kratos_public_url" required:"true"`
	KratosAdminURL  string `envconfig:"kratos_admin_url" required:"true"`

	RecoveryRedirectURL string `envconfig:"recovery_redirect_url" default:"/auth/reset-password"`

	// Redirect targets used by the role guard. Opaque destinations, the guard
	// only ever sends callers there.
	SignInURL string `envconfig:"sign_in_url" default:"/auth"`
	HomeURL   string `envconfig:"home_url" default:"/"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	AuthorizationEnabled bool   `envconfig:"authorization_enabled" default:"false"`
	OpenfgaApiScheme     string `envconfig:"openfga_api_scheme" default:""`
	OpenfgaApiHost       string `envconfig:"openfga_api_host"`
	OpenfgaApiToken      string `envconfig:"openfga_api_token"`
	OpenfgaStoreId       string `envconfig:"openfga_store_id"`
	OpenfgaModelId       string `envconfig:"openfga_authorization_model_id" default:""`

	// Optional OIDC verification for service-to-service API access.
	JWTAuthenticationEnabled bool     `envconfig:"jwt_authentication_enabled" default:"false"`
	OIDCIssuer               string   `envconfig:"oidc_issuer"`
	JWKSURL                  string   `envconfig:"jwks_url"`
	AllowedSubjects          []string `envconfig:"allowed_subjects"`
	RequiredScope            string   `envconfig:"required_scope" default:"marketplace:admin"`
}
