package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/recommender"
)

// recommendRequest 是推荐请求体。交易历史内联传入，按时间排序后使用。
// Age 用指针区分"字段缺失"与"显式 0"：只有缺失才补默认年龄。
type recommendRequest struct {
	ClientID string             `json:"client_id"`
	History  []core.Transaction `json:"transaction_history"`
	Age      *int               `json:"age"`
	Gender   string             `json:"gender"`
}

// context 把请求体转成链路上下文，在解码边界补人口属性默认值。
func (req *recommendRequest) context() *core.RecommendContext {
	age := recommender.DefaultAge
	if req.Age != nil {
		age = *req.Age
	}
	gender := req.Gender
	if gender == "" {
		gender = recommender.DefaultGender
	}
	rctx := &core.RecommendContext{
		ClientID: req.ClientID,
		Age:      age,
		Gender:   gender,
		History:  req.History,
	}
	rctx.Record().SortHistory()
	return rctx
}

type recommendResponse struct {
	RecommendedProducts []string `json:"recommended_products"`
}

type server struct {
	rec    *recommender.Recommender
	logger zerolog.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/ready", s.handleReady)
	r.Post("/recommend", s.handleRecommend)
	return r
}

func (s *server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRecommend 永远返回 200 和一个非空列表。
// 请求体解析失败按空历史处理，走热门兜底；错误只打日志。
func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn().Err(err).Msg("malformed recommend request")
		req = recommendRequest{}
	}

	recs := s.rec.Recommend(r.Context(), req.context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(recommendResponse{RecommendedProducts: recs}); err != nil {
		s.logger.Error().Err(err).Msg("write response")
	}
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
