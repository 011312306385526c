package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"payread/internal/api/apis"
	"payread/internal/api/handler"
	"payread/internal/model"
	"payread/internal/repository"
	"payread/internal/service"
	"payread/pkg/async"
	"payread/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// memOrderRepo 内存订单仓库，行为对齐MySQL实现
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	seq    []string
	nextID uint64
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*model.Order)}
}

func (r *memOrderRepo) Create(ctx context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.TradeNo]; ok {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	r.nextID++
	saved := *order
	saved.ID = r.nextID
	now := time.Now()
	saved.CreatedAt = now
	saved.UpdatedAt = now
	r.orders[order.TradeNo] = &saved
	r.seq = append(r.seq, order.TradeNo)
	return nil
}

func (r *memOrderRepo) GetByTradeNo(ctx context.Context, tradeNo string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[tradeNo]
	if !ok {
		return nil, nil
	}
	snapshot := *order
	return &snapshot, nil
}

func (r *memOrderRepo) GetPaidOrder(ctx context.Context, tradeNo, postID string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[tradeNo]
	if !ok || order.PostID != postID || order.Status != model.OrderStatusPaid {
		return nil, nil
	}
	snapshot := *order
	return &snapshot, nil
}

func (r *memOrderRepo) MarkPaid(ctx context.Context, tradeNo, token string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[tradeNo]
	if !ok || order.Status != model.OrderStatusPending {
		return false, nil
	}
	order.Status = model.OrderStatusPaid
	order.Token = sql.NullString{String: token, Valid: true}
	order.PaidAt = sql.NullTime{Time: paidAt, Valid: true}
	order.UpdatedAt = time.Now()
	return true, nil
}

func (r *memOrderRepo) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]model.Order, 0, len(r.seq))
	for i := len(r.seq) - 1; i >= 0 && len(orders) < limit; i-- {
		orders = append(orders, *r.orders[r.seq[i]])
	}
	return orders, nil
}

func (r *memOrderRepo) GetStats(ctx context.Context) (*model.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.OrderStats{}
	for _, tradeNo := range r.seq {
		order := r.orders[tradeNo]
		stats.TotalOrders++
		if order.Status == model.OrderStatusPaid {
			stats.PaidOrders++
			stats.TotalRevenue += order.Amount
		}
	}
	return stats, nil
}

// memNotificationRepo 内存回调审计仓库
type memNotificationRepo struct {
	mu      sync.Mutex
	records []model.PaymentNotification
}

func (r *memNotificationRepo) Create(ctx context.Context, notification *model.PaymentNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *notification)
	return nil
}

func (r *memNotificationRepo) ListRecent(ctx context.Context, limit int) ([]model.PaymentNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]model.PaymentNotification, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, r.records[i])
	}
	return records, nil
}

const (
	testBaseURL    = "http://localhost:8080"
	testCookieName = "payread_token"
	testMaxAge     = 86400
)

type testServer struct {
	router *gin.Engine
	tokens *service.TokenService
}

// newTestServer 按生产路由装配一套基于内存仓库的服务端
func newTestServer(t *testing.T, posts map[string]string) *testServer {
	t.Helper()
	log := logger.NewLogger("error")

	contentDir := t.TempDir()
	for postID, html := range posts {
		if err := os.WriteFile(filepath.Join(contentDir, postID+".html"), []byte(html), 0644); err != nil {
			t.Fatalf("写入测试内容失败: %v", err)
		}
	}

	worker := async.NewWorker(16, log)
	worker.Start(1)
	t.Cleanup(worker.Stop)

	tokens := service.NewTokenService("test-secret", 24*time.Hour)
	orderService := service.NewOrderService(newMemOrderRepo(), &memNotificationRepo{}, tokens, worker, nil, "", nil, log)
	contentService := service.NewContentService(repository.NewContentStore(contentDir), nil, log)

	orderHandler := handler.NewOrderHandler(orderService, log)
	paymentHandler := handler.NewPaymentHandler(orderService, log)
	sessionHandler := handler.NewSessionHandler(orderService, testBaseURL, testCookieName, testMaxAge, log)
	contentHandler := handler.NewContentHandler(contentService, log)

	router := gin.New()
	root := router.Group("")
	apis.RegisterRoutes(root, orderHandler, paymentHandler, sessionHandler, contentHandler, tokens, testCookieName, nil, log)

	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

// createOrder 走下单接口创建待支付订单并返回订单号
func (s *testServer) createOrder(t *testing.T, postID string, amount float64) string {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/orders", `{"post_id":"`+postID+`","amount":`+jsonNumber(amount)+`}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("下单失败: status=%d body=%s", resp.Code, resp.Body.String())
	}
	var payload struct {
		TradeNo string `json:"trade_no"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("解析下单应答失败: %v", err)
	}
	if payload.TradeNo == "" {
		t.Fatal("下单应答缺少订单号")
	}
	return payload.TradeNo
}

// notifyPaid 走回调接口将订单置为已支付
func (s *testServer) notifyPaid(t *testing.T, tradeNo, postID string) {
	t.Helper()
	body := `{"trade_no":"` + tradeNo + `","post_id":"` + postID + `","amount":"5.00"}`
	resp := s.doJSON(t, http.MethodPost, "/payments/notify", body)
	if resp.Code != http.StatusOK || resp.Body.String() != "OK" {
		t.Fatalf("回调失败: status=%d body=%s", resp.Code, resp.Body.String())
	}
}

// paidToken 查询订单状态并返回已支付订单的访问凭证
func (s *testServer) paidToken(t *testing.T, tradeNo string) string {
	t.Helper()
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/payments/status?trade_no="+url.QueryEscape(tradeNo), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("查询状态失败: status=%d body=%s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Paid  bool   `json:"paid"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("解析状态应答失败: %v", err)
	}
	if !payload.Paid || payload.Token == "" {
		t.Fatalf("订单未支付或缺少凭证: %s", resp.Body.String())
	}
	return payload.Token
}

func jsonNumber(v float64) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func findCookie(resp *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.doJSON(t, http.MethodPost, "/orders", `{"post_id":"p1","amount":9.9}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.Code, resp.Body.String())
	}
	var payload struct {
		OK      bool   `json:"ok"`
		TradeNo string `json:"trade_no"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("解析应答失败: %v", err)
	}
	if !payload.OK {
		t.Error("应答ok不为true")
	}
	if !strings.HasPrefix(payload.TradeNo, "PR") {
		t.Errorf("订单号 %q 缺少PR前缀", payload.TradeNo)
	}
}

func TestCreateOrderEndpointRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"请求体非JSON", `{bad`, "参数错误"},
		{"缺少文章标识", `{"amount":1}`, "post_id不能为空"},
		{"文章标识非法", `{"post_id":"a/b","amount":1}`, "post_id格式错误"},
		{"负金额", `{"post_id":"p1","amount":-1}`, "金额格式错误"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.doJSON(t, http.MethodPost, "/orders", tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body=%s", resp.Code, resp.Body.String())
			}
			if !strings.Contains(resp.Body.String(), tt.wantMsg) {
				t.Errorf("body = %s, want 包含 %q", resp.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestPaymentNotifyEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	tradeNo := srv.createOrder(t, "p1", 5)

	// 别名字段的JSON回调
	body := `{"out_trade_no":"` + tradeNo + `","post":"p1","total_fee":"5.00"}`
	resp := srv.doJSON(t, http.MethodPost, "/payments/notify", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.Code, resp.Body.String())
	}
	if resp.Body.String() != "OK" {
		t.Errorf("应答 = %q, want %q", resp.Body.String(), "OK")
	}

	// 重复回调同样应答OK
	resp = srv.doJSON(t, http.MethodPost, "/payments/notify", body)
	if resp.Code != http.StatusOK || resp.Body.String() != "OK" {
		t.Errorf("重复回调: status=%d body=%q", resp.Code, resp.Body.String())
	}

	if token := srv.paidToken(t, tradeNo); token == "" {
		t.Error("缺少访问凭证")
	}
}

func TestPaymentNotifyEndpointFormEncoded(t *testing.T) {
	srv := newTestServer(t, nil)
	tradeNo := srv.createOrder(t, "p1", 5)

	form := url.Values{}
	form.Set("order_no", tradeNo)
	form.Set("pid", "p1")
	form.Set("money", "5.00")
	req := httptest.NewRequest(http.MethodPost, "/payments/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := srv.do(t, req)
	if resp.Code != http.StatusOK || resp.Body.String() != "OK" {
		t.Fatalf("表单回调: status=%d body=%q", resp.Code, resp.Body.String())
	}
	srv.paidToken(t, tradeNo)
}

func TestPaymentNotifyEndpointRejectsUnusable(t *testing.T) {
	srv := newTestServer(t, nil)

	// 找不到订单号的回调
	resp := srv.doJSON(t, http.MethodPost, "/payments/notify", `{"foo":"bar"}`)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "缺少订单号") {
		t.Errorf("body = %q", resp.Body.String())
	}

	// 文章标识非法的未知订单回调
	resp = srv.doJSON(t, http.MethodPost, "/payments/notify", `{"trade_no":"T1","post_id":"a/b"}`)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}
}

func TestOrderStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	// 缺少订单号
	resp := srv.do(t, httptest.NewRequest(http.MethodGet, "/payments/status", nil))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.Code)
	}

	// 未知订单视为未支付
	resp = srv.do(t, httptest.NewRequest(http.MethodGet, "/payments/status?trade_no=T-NONE", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var payload struct {
		Paid  bool   `json:"paid"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("解析应答失败: %v", err)
	}
	if payload.Paid || payload.Token != "" {
		t.Errorf("未知订单应答 = %s", resp.Body.String())
	}

	// 待支付订单不下发凭证
	tradeNo := srv.createOrder(t, "p1", 5)
	resp = srv.do(t, httptest.NewRequest(http.MethodGet, "/payments/status?trade_no="+tradeNo, nil))
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("解析应答失败: %v", err)
	}
	if payload.Paid || payload.Token != "" {
		t.Errorf("待支付订单应答 = %s", resp.Body.String())
	}
}

func TestSessionExchange(t *testing.T) {
	srv := newTestServer(t, nil)
	tradeNo := srv.createOrder(t, "p1", 5)
	srv.notifyPaid(t, tradeNo, "p1")
	token := srv.paidToken(t, tradeNo)

	target := "/sessions/exchange?trade_no=" + url.QueryEscape(tradeNo) + "&post=p1"
	resp := srv.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.Code)
	}
	if got := resp.Header().Get("Location"); got != testBaseURL+"/posts/p1" {
		t.Errorf("Location = %q, want %q", got, testBaseURL+"/posts/p1")
	}

	cookie := findCookie(resp, testCookieName)
	if cookie == nil {
		t.Fatal("未下发会话Cookie")
	}
	if cookie.Value != token {
		t.Error("Cookie值与订单凭证不一致")
	}
	if !cookie.HttpOnly {
		t.Error("Cookie缺少HttpOnly")
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie路径 = %q, want /", cookie.Path)
	}
	if cookie.MaxAge != testMaxAge {
		t.Errorf("Cookie有效期 = %d, want %d", cookie.MaxAge, testMaxAge)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.Secure {
		t.Error("明文站点不应下发Secure Cookie")
	}
}

func TestSessionExchangeFailures(t *testing.T) {
	srv := newTestServer(t, nil)
	tradeNo := srv.createOrder(t, "p1", 5)
	pendingTradeNo := srv.createOrder(t, "p2", 5)
	srv.notifyPaid(t, tradeNo, "p1")

	failureURL := testBaseURL + "/purchase/failed"
	tests := []struct {
		name   string
		target string
	}{
		{"缺少参数", "/sessions/exchange?trade_no=" + tradeNo},
		{"文章不匹配", "/sessions/exchange?trade_no=" + tradeNo + "&post=p2"},
		{"订单不存在", "/sessions/exchange?trade_no=T-NONE&post=p1"},
		{"订单未支付", "/sessions/exchange?trade_no=" + pendingTradeNo + "&post=p2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if resp.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", resp.Code)
			}
			if got := resp.Header().Get("Location"); got != failureURL {
				t.Errorf("Location = %q, want %q", got, failureURL)
			}
			if cookie := findCookie(resp, testCookieName); cookie != nil {
				t.Error("兑换失败不应下发Cookie")
			}
		})
	}
}

func TestContentEndpointAuth(t *testing.T) {
	srv := newTestServer(t, map[string]string{"p1": "<h1>第一篇</h1>"})

	// 未携带凭证
	resp := srv.do(t, httptest.NewRequest(http.MethodGet, "/content", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "未携带访问凭证") {
		t.Errorf("body = %s", resp.Body.String())
	}

	// 凭证无法通过校验
	req := httptest.NewRequest(http.MethodGet, "/content", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = srv.do(t, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "访问凭证无效或已过期") {
		t.Errorf("body = %s", resp.Body.String())
	}
}

func TestContentEndpoint(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"p1": "<h1>第一篇</h1>",
		"p2": "<h1>第二篇</h1>",
	})
	tokenP1, err := srv.tokens.Issue("p1", "T1")
	if err != nil {
		t.Fatalf("签发凭证失败: %v", err)
	}
	tokenP2, err := srv.tokens.Issue("p2", "T2")
	if err != nil {
		t.Fatalf("签发凭证失败: %v", err)
	}

	// Cookie凭证
	req := httptest.NewRequest(http.MethodGet, "/content", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: tokenP1})
	resp := srv.do(t, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "第一篇") {
		t.Errorf("body = %s", resp.Body.String())
	}

	// Bearer凭证
	req = httptest.NewRequest(http.MethodGet, "/content", nil)
	req.Header.Set("Authorization", "Bearer "+tokenP2)
	resp = srv.do(t, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "第二篇") {
		t.Errorf("Bearer凭证: status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 同时携带时Authorization头优先
	req = httptest.NewRequest(http.MethodGet, "/content", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: tokenP1})
	req.Header.Set("Authorization", "Bearer "+tokenP2)
	resp = srv.do(t, req)
	if !strings.Contains(resp.Body.String(), "第二篇") {
		t.Errorf("优先级: body=%s", resp.Body.String())
	}

	// 文章标识只认凭证声明，查询参数不生效
	req = httptest.NewRequest(http.MethodGet, "/content?post_id=p2&post=p2", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: tokenP1})
	resp = srv.do(t, req)
	if !strings.Contains(resp.Body.String(), "第一篇") {
		t.Errorf("参数越权: body=%s", resp.Body.String())
	}
}

func TestContentEndpointMissingPost(t *testing.T) {
	srv := newTestServer(t, map[string]string{"p1": "<h1>第一篇</h1>"})
	token, err := srv.tokens.Issue("ghost", "T1")
	if err != nil {
		t.Fatalf("签发凭证失败: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/content", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := srv.do(t, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "内容不存在") {
		t.Errorf("body = %s", resp.Body.String())
	}
}

// TestPurchaseFlow 从下单到读文的完整链路
func TestPurchaseFlow(t *testing.T) {
	srv := newTestServer(t, map[string]string{"deep-dive": "<h1>深入篇</h1>"})

	tradeNo := srv.createOrder(t, "deep-dive", 19.9)

	// 支付前无法拿到凭证
	resp := srv.do(t, httptest.NewRequest(http.MethodGet, "/payments/status?trade_no="+tradeNo, nil))
	if strings.Contains(resp.Body.String(), `"token"`) {
		t.Fatalf("支付前下发了凭证: %s", resp.Body.String())
	}

	srv.notifyPaid(t, tradeNo, "deep-dive")

	// 兑换会话Cookie
	target := "/sessions/exchange?trade_no=" + url.QueryEscape(tradeNo) + "&post=deep-dive"
	resp = srv.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("兑换失败: status=%d", resp.Code)
	}
	cookie := findCookie(resp, testCookieName)
	if cookie == nil {
		t.Fatal("未下发会话Cookie")
	}

	// 带Cookie读取付费内容
	req := httptest.NewRequest(http.MethodGet, "/content", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie.Value})
	resp = srv.do(t, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("读文失败: status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "深入篇") {
		t.Errorf("body = %s", resp.Body.String())
	}
}
