package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

// 完整的读穿流程：首次回源并落库，之后全部本地命中。
func TestMirrorFlowListThenSingle(t *testing.T) {
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/startups":
			w.Write([]byte(`[
				{"id":1,"name":"Orbitly","email":"hello@orbitly.io","sector":"space"},
				{"id":2,"name":"Greenleaf","email":"team@greenleaf.eco","sector":"agritech"}
			]`))
		case "/startups/1":
			w.Write([]byte(`{
				"id":1,"name":"Orbitly","email":"hello@orbitly.io","sector":"space",
				"description":"Orbital logistics",
				"founders":[{"id":10,"name":"Ada","startup_id":1}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not Found"}`))
		}
	})

	resp := env.get(t, "/api/startups")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var startups []map[string]any
	if err := json.Unmarshal(body, &startups); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(startups) != 2 {
		t.Fatalf("应返回 2 家公司: %s", body)
	}

	// 列表已镜像，重复访问不再回源。
	env.get(t, "/api/startups").Body.Close()
	if env.upstreamHits.Load() != 1 {
		t.Fatalf("列表命中后不应回源, 实际 %d 次", env.upstreamHits.Load())
	}

	// 单条详情是独立的键，首次访问仍需回源一次。
	resp = env.get(t, "/api/startups/1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", resp.StatusCode)
	}
	var detail map[string]any
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err := json.Unmarshal(body, &detail); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	founders, ok := detail["founders"].([]any)
	if !ok || len(founders) != 1 {
		t.Fatalf("详情应包含创始人: %s", body)
	}

	env.get(t, "/api/startups/1").Body.Close()
	if env.upstreamHits.Load() != 2 {
		t.Fatalf("详情命中后不应回源, 实际 %d 次", env.upstreamHits.Load())
	}
}

func TestMirrorFlowUpstreamErrorNotCached(t *testing.T) {
	fail := true
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"detail":"upstream maintenance"}`))
			return
		}
		w.Write([]byte(`[{"id":4,"name":"June Meetup"}]`))
	})

	resp := env.get(t, "/api/events")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("上游 503 应透传, 实际 %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != `{"detail":"upstream maintenance"}` {
		t.Fatalf("503 响应体应原样透传: %s", body)
	}

	// 失败不落库：恢复后重新回源即可拿到数据。
	fail = false
	resp = env.get(t, "/api/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("恢复后应返回 200, 实际 %d", resp.StatusCode)
	}
	resp.Body.Close()
	if env.upstreamHits.Load() != 2 {
		t.Fatalf("应回源两次, 实际 %d 次", env.upstreamHits.Load())
	}
}

func TestMirrorFlowUserByEmail(t *testing.T) {
	env := newEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/email/carol@incuhub.io" {
			t.Errorf("意外的上游路径: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":31,"email":"carol@incuhub.io","name":"Carol","role":"founder"}`))
	})

	resp := env.get(t, "/api/users/email/carol@incuhub.io")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", resp.StatusCode)
	}
	resp.Body.Close()

	// 按 id 查询命中同一行，无需再回源。
	resp = env.get(t, "/api/users/31")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", resp.StatusCode)
	}
	resp.Body.Close()
	if env.upstreamHits.Load() != 1 {
		t.Fatalf("邮箱回源后按 id 查询应命中本地, 实际 %d 次", env.upstreamHits.Load())
	}
}
