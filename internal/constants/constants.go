package constants

import "time"

// Application
const (
	AppName    = "mcp-twikit-tools"
	ServerName = "mcp-twikit-tools"
	Version    = "0.3.0"
)

// Session settings
const (
	SessionDirName     = ".mcp-twikit-tools"
	SessionFileName    = "cookies.json"
	SessionLockSuffix  = ".lock"
	SessionFileMode    = 0600
	SessionDirMode     = 0700
	DefaultLocale      = "en-US"
	RedisKeyPrefix     = "twikitmcp:session:"
	SealMagic          = "TKSEAL1\n"
	SealKeyInfo        = "twikitmcp session record v1"
	DefaultAccountName = "default"
)

// Login protection
const (
	MaxLoginAttempts   = 5
	LoginBlockDuration = 15 * time.Minute
)

// Rate limiting
const (
	RateLimitWindow     = 15 * time.Minute
	TweetQuota          = 300
	DMQuota             = 1000
	MaxConnectionsPerIP = 10
	MaxAuthAttempts     = 5
	BlockDuration       = 15 * time.Minute
	CleanupInterval     = 5 * time.Minute
)

// Tool defaults
const (
	DefaultSearchCount   = 15
	DefaultUserCount     = 15
	DefaultTimelineCount = 20
	ThreadReplyCount     = 50
	MaxCount             = 100
	DefaultTweetType     = "Tweets"
	DefaultSortBy        = "Top"
)

// Network defaults
const (
	DefaultGatewayURL     = "http://127.0.0.1:8765"
	DefaultGatewayTimeout = 30 * time.Second
	DefaultHTTPAddr       = "127.0.0.1:8080"
	EndpointMCP           = "/mcp"
	MaxErrorBodySize      = 4096
	ShutdownTimeout       = 5 * time.Second
)

// Audit
const (
	MaxAuditLogsPerMinute = 600
	MinDiskSpaceRequired  = 50 * 1024 * 1024 // 50MB
)

// Transports
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment variables
const (
	EnvUsername       = "TWITTER_USERNAME"
	EnvEmail          = "TWITTER_EMAIL"
	EnvPassword       = "TWITTER_PASSWORD"
	EnvTOTPSecret     = "TWITTER_2FA"
	EnvLocale         = "TWITTER_LOCALE"
	EnvSessionKey     = "TWITTER_SESSION_KEY"
	EnvSessionPath    = "TWIKIT_SESSION_PATH"
	EnvGatewayURL     = "TWIKIT_GATEWAY_URL"
	EnvGatewayTimeout = "TWIKIT_GATEWAY_TIMEOUT"
	EnvAudit          = "TWIKIT_AUDIT"
	EnvTransport      = "MCP_TRANSPORT"
	EnvHTTPAddr       = "MCP_HTTP_ADDR"
	EnvHTTPToken      = "MCP_HTTP_TOKEN"
	EnvAllowedOrigins = "MCP_ALLOWED_ORIGINS"
	EnvRedisHost      = "REDIS_HOST"
	EnvRedisPort      = "REDIS_PORT"
	EnvRedisUser      = "REDIS_USERNAME"
	EnvRedisPassword  = "REDIS_PASSWORD"
)

// Messages
const (
	MsgTweetRateLimited = "Rate limit exceeded for tweets. Please wait before posting again."
	MsgDMRateLimited    = "Rate limit exceeded for DMs. Please wait before sending again."
	MsgNoReplies        = "*No replies*"
	MsgUnauthorized     = "Unauthorized"
	MsgConnLimit        = "Connection limit exceeded"
	MsgTooManyAttempts  = "Too many failed attempts"
	MsgForbiddenOrigin  = "Origin not allowed"
)
