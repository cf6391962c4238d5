package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poofware/mfa-service/internal/utils"
)

// Config holds all application configuration.
type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string

	// Relying-party identity. RPOrigin must match the browser origin
	// exactly, scheme included.
	RPID     string
	RPName   string
	RPOrigin string

	// Ceremony policy.
	RegistrationTimeout     time.Duration
	AuthenticationTimeout   time.Duration
	ChallengeTTLGrace       time.Duration
	RequireUserVerification bool

	// Backing store: "memory" or "postgres".
	StoreBackend string
	DBUrl        string

	// Second-factor provider selection. The set is closed; the active
	// method is chosen here, not looked up by name at runtime.
	EnabledMethods []utils.SecondFactorMethod

	// OTP delivery.
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromPhone   string
	SendGridAPIKey    string
	SendGridFromEmail string

	OTPCodeLength  int
	OTPCodeExpiry  time.Duration
	OTPMaxAttempts int

	// Rate limiting for OTP delivery.
	OTPLimitPerUserPerHour int
	GlobalOTPLimitPerHour  int
	RateLimitWindow        time.Duration

	CORSHighSecurity bool
}

// Defaults.
const (
	OrganizationName = "Poof"

	DefaultRegistrationTimeout   = 2 * time.Minute
	DefaultAuthenticationTimeout = 2 * time.Minute
	// The store keeps a consumed-too-late challenge around just long enough
	// to report "expired" instead of "invalid".
	DefaultChallengeTTLGrace = 1 * time.Minute

	DefaultOTPCodeLength  = 6
	DefaultOTPCodeExpiry  = 5 * time.Minute
	DefaultOTPMaxAttempts = 5

	DefaultOTPLimitPerUserPerHour = 5
	DefaultGlobalOTPLimitPerHour  = 1000
	DefaultRateLimitWindow        = 1 * time.Hour
)

// LoadConfig reads the environment and returns a *Config. Missing required
// variables are fatal.
func LoadConfig() *Config {
	appName := os.Getenv("APP_NAME")
	if appName == "" {
		appName = "mfa-service"
	}

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	rpID := os.Getenv("RP_ID")
	if rpID == "" {
		utils.Logger.Fatal("RP_ID env var is missing")
	}
	rpOrigin := os.Getenv("RP_ORIGIN")
	if rpOrigin == "" {
		utils.Logger.Fatal("RP_ORIGIN env var is missing")
	}
	rpName := os.Getenv("RP_NAME")
	if rpName == "" {
		rpName = OrganizationName
	}

	storeBackend := os.Getenv("STORE_BACKEND")
	if storeBackend == "" {
		storeBackend = "memory"
	}
	dbUrl := os.Getenv("DB_URL")
	if storeBackend == "postgres" && dbUrl == "" {
		utils.Logger.Fatal("DB_URL env var is required when STORE_BACKEND=postgres")
	}

	methods := parseEnabledMethods(os.Getenv("ENABLED_METHODS"))

	cfg := &Config{
		OrganizationName: OrganizationName,
		AppName:          appName,
		AppPort:          appPort,

		RPID:     rpID,
		RPName:   rpName,
		RPOrigin: rpOrigin,

		RegistrationTimeout:     envDuration("REGISTRATION_TIMEOUT", DefaultRegistrationTimeout),
		AuthenticationTimeout:   envDuration("AUTHENTICATION_TIMEOUT", DefaultAuthenticationTimeout),
		ChallengeTTLGrace:       DefaultChallengeTTLGrace,
		RequireUserVerification: envBool("REQUIRE_USER_VERIFICATION", false),

		StoreBackend: storeBackend,
		DBUrl:        dbUrl,

		EnabledMethods: methods,

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:   os.Getenv("TWILIO_FROM_PHONE"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),

		OTPCodeLength:  envInt("OTP_CODE_LENGTH", DefaultOTPCodeLength),
		OTPCodeExpiry:  envDuration("OTP_CODE_EXPIRY", DefaultOTPCodeExpiry),
		OTPMaxAttempts: envInt("OTP_MAX_ATTEMPTS", DefaultOTPMaxAttempts),

		OTPLimitPerUserPerHour: envInt("OTP_LIMIT_PER_USER_PER_HOUR", DefaultOTPLimitPerUserPerHour),
		GlobalOTPLimitPerHour:  envInt("GLOBAL_OTP_LIMIT_PER_HOUR", DefaultGlobalOTPLimitPerHour),
		RateLimitWindow:        DefaultRateLimitWindow,

		CORSHighSecurity: envBool("CORS_HIGH_SECURITY", false),
	}

	for _, m := range cfg.EnabledMethods {
		switch m {
		case utils.MethodOTPEmail:
			if cfg.SendGridAPIKey == "" || cfg.SendGridFromEmail == "" {
				utils.Logger.Fatal("SENDGRID_API_KEY and SENDGRID_FROM_EMAIL are required when otp_email is enabled")
			}
		case utils.MethodOTPSMS:
			if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromPhone == "" {
				utils.Logger.Fatal("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_PHONE are required when otp_sms is enabled")
			}
		}
	}

	return cfg
}

// MethodEnabled reports whether the given second-factor method was enabled
// by configuration.
func (c *Config) MethodEnabled(m utils.SecondFactorMethod) bool {
	for _, enabled := range c.EnabledMethods {
		if enabled == m {
			return true
		}
	}
	return false
}

func parseEnabledMethods(raw string) []utils.SecondFactorMethod {
	if raw == "" {
		return []utils.SecondFactorMethod{utils.MethodWebAuthn}
	}
	var methods []utils.SecondFactorMethod
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		m, err := utils.ParseSecondFactorMethod(name)
		if err != nil {
			utils.Logger.Fatalf("ENABLED_METHODS contains unknown method %q", name)
		}
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		utils.Logger.Fatal("ENABLED_METHODS is set but names no methods")
	}
	return methods
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be a boolean, got %q", key, v)
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be a duration (e.g. 2m), got %q", key, v)
	}
	return d
}
