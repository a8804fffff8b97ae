package constants

const (
	HeaderForwardedByKey  = "X-Forwarded-By"
	HeaderUserIDKey       = "X-User-ID"
	HeaderRequestIDKey    = "X-Request-ID"
	HeaderProxyByKey      = "X-Proxy-By"
	HeaderLoginTokenKey   = "X-Competition-JWT-Token"
	HeaderCallbackAuthKey = "X-Judge-Callback-Token"
)

const GatewayServiceName = "OnlineJudge-Aggregator"

const (
	ContextUserClaimsKey = "X-Competition-User-Claims"
)
