//go:build ruleguard

// Package gorules defines custom linter rules for releasewatch.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ModuleLogger flags the standard library log package. Components log through
// internal/logger so output carries the module name and structured fields.
func ModuleLogger(m dsl.Matcher) {
	m.Import("log")

	m.Match(
		`log.Print($*_)`, `log.Printf($*_)`, `log.Println($*_)`,
		`log.Fatal($*_)`, `log.Fatalf($*_)`, `log.Fatalln($*_)`,
		`log.Panic($*_)`, `log.Panicf($*_)`,
	).
		Where(m.File().Imports("log")).
		Report("use logger.Global().Module(...) instead of the standard log package")
}

// ErrorField flags errors logged as plain strings.
//
//	log.Warn("scrape failed", logger.String("error", err.Error()))
//
// should be
//
//	log.Warn("scrape failed", logger.Error(err))
func ErrorField(m dsl.Matcher) {
	m.Match(`logger.String($key, $err.Error())`).
		Where(m["err"].Type.Implements("error")).
		Report("use logger.Error($err) instead of logger.String($key, $err.Error())").
		Suggest("logger.Error($err)")
}

// SharedHTTPClient flags outbound requests that bypass internal/httpclient and
// therefore skip its deadlines, body limits and metrics hook.
func SharedHTTPClient(m dsl.Matcher) {
	m.Match(
		`http.Get($*_)`,
		`http.Post($*_)`,
		`http.Head($*_)`,
		`http.DefaultClient.Do($*_)`,
	).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report("send outbound requests through internal/httpclient")
}

// JoinHostPort detects fmt.Sprintf patterns for host:port; net.JoinHostPort
// brackets IPv6 hosts.
func JoinHostPort(m dsl.Matcher) {
	m.Match(
		`fmt.Sprintf("%s:%d", $host, $port)`,
		`fmt.Sprintf("%v:%d", $host, $port)`,
	).
		Report("use net.JoinHostPort($host, strconv.Itoa($port)) instead of fmt.Sprintf for host:port")
}

// WaitGroupGo detects the manual Add/Done pattern (Go 1.25+).
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern").
		Suggest("$wg.Go(func() { $body })")
}

// TestingContext detects context.Background() in tests (Go 1.24+); t.Context()
// is cancelled when the test ends.
func TestingContext(m dsl.Matcher) {
	m.Match(`context.Background()`).
		Where(m.File().Name.Matches(`_test\.go$`) && !m.File().Name.Matches(`integration_test\.go$`)).
		Report("use t.Context() instead of context.Background() in tests")
}

// TimeLayoutConstants flags magic layouts that have named constants.
func TimeLayoutConstants(m dsl.Matcher) {
	m.Match(`$t.Format("2006-01-02 15:04:05")`).
		Report(`use $t.Format(time.DateTime)`).
		Suggest(`$t.Format(time.DateTime)`)

	m.Match(`$t.Format("2006-01-02")`).
		Report(`use $t.Format(time.DateOnly)`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(`time.Parse("2006-01-02", $s)`).
		Report(`use time.Parse(time.DateOnly, $s)`).
		Suggest(`time.Parse(time.DateOnly, $s)`)
}
