package constants

// 通用错误消息
const (
	// 凭证相关错误
	ErrUnauthorized = "未授权，请先登录"
	ErrNoToken      = "未携带访问凭证"
	ErrInvalidToken = "访问凭证无效或已过期"

	// 参数相关错误
	ErrInvalidParams = "参数错误"

	// 系统错误
	ErrInternalServer       = "服务器内部错误"
	ErrOperationTooFrequent = "请求过于频繁，请稍后重试"
)

// 成功消息
const (
	SuccessLogin  = "登录成功"
	SuccessCreate = "创建成功"
	SuccessGet    = "获取成功"
)

// NotifyAckOK 支付回调的固定应答，支付方收到后才停止重发
const NotifyAckOK = "OK"
