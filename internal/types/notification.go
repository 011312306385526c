package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// 支付方回调字段没有统一命名，按别名优先级逐个匹配，取第一个非空值
var (
	tradeNoAliases = []string{"trade_no", "out_trade_no", "order_no", "order_id"}
	postIDAliases  = []string{"post_id", "post", "item_id", "pid"}
	amountAliases  = []string{"amount", "total_amount", "total_fee", "money"}
)

var (
	// ErrNotifyTradeNoMissing 回调中找不到订单号
	ErrNotifyTradeNoMissing = errors.New("缺少订单号")
	// ErrNotifyPostIDMissing 回调中找不到文章标识
	ErrNotifyPostIDMissing = errors.New("缺少文章标识")
)

// NotifyRequest 解析归一化后的支付回调
type NotifyRequest struct {
	TradeNo string
	PostID  string
	Amount  float64 // 参考值，解析失败时为0
	Raw     []byte  // 原始报文，用于审计
}

// ParseNotifyRequest 解析支付回调报文
// 优先按JSON对象解析，失败时回退为表单编码，URL查询参数一并参与匹配
func ParseNotifyRequest(body []byte, query url.Values) (*NotifyRequest, error) {
	fields := parseJSONFields(body)
	if fields == nil {
		fields = parseFormFields(body, query)
	}

	tradeNo := firstNonEmpty(fields, tradeNoAliases)
	if tradeNo == "" {
		return nil, ErrNotifyTradeNoMissing
	}

	postID := firstNonEmpty(fields, postIDAliases)
	if postID == "" {
		return nil, ErrNotifyPostIDMissing
	}

	var amount float64
	if raw := firstNonEmpty(fields, amountAliases); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			amount = v
		}
	}

	return &NotifyRequest{
		TradeNo: tradeNo,
		PostID:  postID,
		Amount:  amount,
		Raw:     body,
	}, nil
}

// parseJSONFields 将JSON对象的顶层字段转为字符串map，非JSON对象返回nil
func parseJSONFields(body []byte) map[string]string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	// UseNumber避免长订单号经float64转换后失真
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil
	}

	fields := make(map[string]string, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			fields[key] = strings.TrimSpace(v)
		case json.Number:
			fields[key] = v.String()
		}
	}
	return fields
}

// parseFormFields 解析表单编码的请求体，并合并URL查询参数（请求体优先）
func parseFormFields(body []byte, query url.Values) map[string]string {
	fields := make(map[string]string)

	if values, err := url.ParseQuery(string(body)); err == nil {
		for key, list := range values {
			if len(list) > 0 {
				fields[key] = strings.TrimSpace(list[0])
			}
		}
	}

	for key, list := range query {
		if _, exists := fields[key]; exists {
			continue
		}
		if len(list) > 0 {
			fields[key] = strings.TrimSpace(list[0])
		}
	}
	return fields
}

// firstNonEmpty 按别名顺序返回第一个非空字段值
func firstNonEmpty(fields map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := fields[alias]; ok && value != "" {
			return value
		}
	}
	return ""
}
