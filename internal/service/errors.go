package service

import "errors"

// 业务错误哨兵，处理层据此映射HTTP状态码
var (
	// 参数类
	ErrPostIDRequired  = errors.New("post_id不能为空")
	ErrInvalidPostID   = errors.New("post_id格式错误")
	ErrTradeNoRequired = errors.New("缺少订单号")
	ErrInvalidAmount   = errors.New("金额格式错误")

	// 凭证类，区分未携带和无效两种情况
	ErrNoToken      = errors.New("未携带访问凭证")
	ErrInvalidToken = errors.New("访问凭证无效或已过期")

	// 资源类
	ErrContentNotFound = errors.New("内容不存在")

	// 管理员认证
	ErrLoginFailed  = errors.New("用户名或密码错误")
	ErrUnauthorized = errors.New("未授权，请先登录")
)
