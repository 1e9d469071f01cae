package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogConfig          string // path to log config file
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry
	ProfilingPort      int    // port for profiling
	HTTPServerAddr     string // listen addr for HTTP server
	AdminToken         string // token for admin access
	JudgeToken         string // token for judge (scoring) access
	NatsURL            string // NATS server to publish score changes to, empty disables
	NatsSubject        string // subject for score change messages
	MinClientVersion   string // minimum client version accepted on the live endpoint
)
