package pipeline

import (
	"encoding/json"
	"time"
)

// Stage 单篇文章失败所在的步骤
type Stage string

const (
	StageRender  Stage = "render"
	StagePublish Stage = "publish"
	StageRecord  Stage = "record"
)

// Result 单篇文章的处理结果：成功时有 Location，失败时有 Err 和 Stage
type Result struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Location  string `json:"location,omitempty"`
	Stage     Stage  `json:"stage,omitempty"`
	Err       error  `json:"-"`
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Report 一轮运行的汇总
type Report struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Fetched    int       `json:"fetched"`
	Skipped    int       `json:"skipped"`
	Candidates int       `json:"candidates"`
	Deferred   int       `json:"deferred"`
	FetchErr   error     `json:"-"`
	Results    []Result  `json:"results"`
}

// OK 没有待发布文章，或至少成功发布并记录了一篇
func (r Report) OK() bool {
	return r.Candidates == 0 || r.Published() > 0
}

func (r Report) Published() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	return len(r.Results) - r.Published()
}

// ExitCode 0 表示成功，1 表示有待发布文章但全部失败
func (r Report) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	out := struct {
		alias
		OK         bool   `json:"ok"`
		Published  int    `json:"published"`
		FetchError string `json:"fetchError,omitempty"`
	}{alias: alias(r), OK: r.OK(), Published: r.Published()}
	if r.FetchErr != nil {
		out.FetchError = r.FetchErr.Error()
	}
	return json.Marshal(out)
}
