package e2e_test

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/engine"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary builds the mockbird binary once for every testscript run.
func buildBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "mockbird_testscript_bin")
		if err != nil {
			buildErr = fmt.Errorf("creating binary dir: %v", err)
			return
		}
		binaryPath = filepath.Join(dir, "mockbird")
		cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/mockbird")
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("building mockbird: %v\n%s", err, out)
		}
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return binaryPath
}

func TestCLIScripts(t *testing.T) {
	bin := buildBinary(t)

	// The scripts drive a shared in-process server so they don't race
	// over the default port or leave child processes behind.
	port := getFreePort(t)
	srv := engine.New(&config.Config{Port: port, Env: config.EnvProduction},
		engine.WithDataFile(filepath.Join(t.TempDir(), "endpoints.json")))
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Stop() })

	baseURL := "http://localhost:" + strconv.Itoa(port)
	waitForServer(t, baseURL+"/api/admin/health")

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("PATH", filepath.Dir(bin)+string(os.PathListSeparator)+env.Getenv("PATH"))
			env.Setenv("MOCKBIRD_ADMIN_URL", baseURL)
			env.Setenv("BASE_URL", baseURL)
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			// httpget <url> fetches a URL and prints status plus body, so
			// scripts can hit the mock surface without a shell curl.
			"httpget": cmdHTTPGet,
		},
	})
}

func cmdHTTPGet(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 1 {
		ts.Fatalf("usage: httpget <url>")
	}
	resp, err := http.Get(args[0])
	if err != nil {
		if neg {
			return
		}
		ts.Fatalf("GET %s: %v", args[0], err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.Fatalf("reading body: %v", err)
	}
	if neg && resp.StatusCode < 400 {
		ts.Fatalf("GET %s unexpectedly succeeded: %d", args[0], resp.StatusCode)
	}
	fmt.Fprintf(ts.Stdout(), "%d %s\n", resp.StatusCode, body)
}

func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("getting port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server at %s never became healthy", url)
}

func TestMain(m *testing.M) {
	defer func() {
		if binaryPath != "" {
			os.RemoveAll(filepath.Dir(binaryPath))
		}
	}()
	os.Exit(testscript.RunMain(m, nil))
}
