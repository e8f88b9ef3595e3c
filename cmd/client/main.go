// Smoke client: walks the HTTP API end to end against a running server and
// optionally checks the gRPC health endpoint.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gurkanbulca/projecthub/internal/models"
)

type client struct {
	base string
	http *http.Client
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "server base URL")
	prefix := flag.String("prefix", "/api/v1", "API prefix")
	grpcAddr := flag.String("grpc", "", "gRPC health address (GRPC_ENABLED servers), empty to skip")
	flag.Parse()

	fmt.Println("🚀 Project Hub Smoke Client")
	fmt.Println("==================================================")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c := &client{base: *baseURL + *prefix, http: &http.Client{Timeout: 10 * time.Second}}

	fmt.Println("\n💓 TEST 1: HTTP health")
	var health map[string]any
	if err := c.do(ctx, http.MethodGet, *baseURL+"/health", nil, &health); err != nil {
		log.Fatalf("  ❌ health: %v", err)
	}
	fmt.Printf("  ✅ %v (%v %v)\n", health["status"], health["app"], health["version"])

	if *grpcAddr != "" {
		fmt.Println("\n💓 TEST 2: gRPC health")
		checkGRPCHealth(ctx, *grpcAddr)
	}

	fmt.Println("\n📁 TEST 3: Projects")
	var project models.Project
	name := fmt.Sprintf("Smoke %d", time.Now().UnixNano())
	if err := c.do(ctx, http.MethodPost, c.url("/projects/", nil), map[string]any{
		"name":        name,
		"description": "created by the smoke client",
		"status":      "active",
	}, &project); err != nil {
		log.Fatalf("  ❌ create project: %v", err)
	}
	fmt.Printf("  ✅ created project %d %q\n", project.ID, project.Name)

	if err := c.do(ctx, http.MethodPost, c.url("/projects/", nil), map[string]any{"name": name}, nil); err != nil {
		fmt.Printf("  ✅ duplicate rejected: %v\n", err)
	} else {
		log.Fatalf("  ❌ duplicate project name was accepted")
	}

	fmt.Println("\n📝 TEST 4: Tasks")
	today := models.DateOf(time.Now())
	tomorrow := models.DateOf(time.Now().AddDate(0, 0, 1))
	yesterday := models.DateOf(time.Now().AddDate(0, 0, -1))

	var due, late models.Task
	if err := c.do(ctx, http.MethodPost, c.url("/tasks/", nil), map[string]any{
		"project_id": project.ID,
		"title":      "Write docs",
		"assignee":   "alice",
		"start_date": today,
		"end_date":   tomorrow,
		"priority":   3,
	}, &due); err != nil {
		log.Fatalf("  ❌ create task: %v", err)
	}
	fmt.Printf("  ✅ task %d: overdue=%v days_remaining=%v\n", due.ID, due.IsOverdue, deref(due.DaysRemaining))

	if err := c.do(ctx, http.MethodPost, c.url("/tasks/", nil), map[string]any{
		"project_id": project.ID,
		"title":      "Fix release script",
		"assignee":   "bob",
		"start_date": yesterday,
		"end_date":   yesterday,
	}, &late); err != nil {
		log.Fatalf("  ❌ create task: %v", err)
	}
	fmt.Printf("  ✅ task %d: overdue=%v priority=%s\n", late.ID, late.IsOverdue, late.Priority)

	if err := c.do(ctx, http.MethodPatch, c.url(fmt.Sprintf("/tasks/%d/status", due.ID), url.Values{"status": {"completed"}}), nil, &due); err != nil {
		log.Fatalf("  ❌ change task status: %v", err)
	}
	fmt.Printf("  ✅ task %d is now %s\n", due.ID, due.Status)

	var tasks models.TaskList
	q := url.Values{"project_id": {fmt.Sprint(project.ID)}, "page_size": {"1"}}
	if err := c.do(ctx, http.MethodGet, c.url("/tasks/", q), nil, &tasks); err != nil {
		log.Fatalf("  ❌ list tasks: %v", err)
	}
	fmt.Printf("  ✅ %d tasks over %d pages\n", tasks.Total, tasks.TotalPages)

	fmt.Println("\n📊 TEST 5: Statistics")
	if err := c.do(ctx, http.MethodGet, c.url(fmt.Sprintf("/projects/%d", project.ID), nil), nil, &project); err != nil {
		log.Fatalf("  ❌ get project: %v", err)
	}
	if s := project.Statistics; s != nil {
		fmt.Printf("  ✅ total=%d completed=%d pending=%d overdue=%d rate=%.1f%%\n",
			s.TotalTasks, s.CompletedTasks, s.PendingTasks, s.OverdueTasks, s.CompletionRate)
	}

	fmt.Println("\n🧹 TEST 6: Cleanup")
	if err := c.do(ctx, http.MethodDelete, c.url(fmt.Sprintf("/projects/%d", project.ID), nil), nil, nil); err != nil {
		log.Fatalf("  ❌ delete project: %v", err)
	}
	if err := c.do(ctx, http.MethodGet, c.url(fmt.Sprintf("/tasks/%d", late.ID), nil), nil, nil); err != nil {
		fmt.Printf("  ✅ tasks removed with their project: %v\n", err)
	}

	fmt.Println("\n✅ All checks passed")
}

func (c *client) url(path string, q url.Values) string {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

func (c *client) do(ctx context.Context, method, u string, body, out any) error {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Status: resp.StatusCode, Detail: e.Detail}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkGRPCHealth(ctx context.Context, addr string) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("  ❌ connect: %v", err)
	}
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	for _, svc := range []string{"", "projects", "tasks", "ui"} {
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: svc})
		if err != nil {
			fmt.Printf("  ⚠️  %q: %v\n", svc, err)
			continue
		}
		fmt.Printf("  ✅ %q: %s\n", svc, resp.GetStatus())
	}
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
