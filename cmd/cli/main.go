// Command pf is a CLI client for the peak-flow tracker service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/and161185/peakflow/internal/api"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email,omitempty"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "peakflow")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "peakflow")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time, email string) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp, Email: email})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

func removeToken() error {
	err := os.Remove(tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// tokenExpiry prefers the server-reported expiry and falls back to the exp claim.
func tokenExpiry(token string, reported time.Time) time.Time {
	if !reported.IsZero() {
		return reported
	}
	var claims jwt.RegisteredClaims
	_, _, _ = jwt.NewParser().ParseUnverified(token, &claims)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

// connOpts selects transport security; plaintext is for local development servers.
type connOpts struct {
	addr      string
	caPath    string
	insecure  bool
	plaintext bool
}

func loadTLS(caPath string, insecure bool) (credentials.TransportCredentials, error) {
	if insecure {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

func dial(o connOpts, bearer string) (*grpc.ClientConn, api.PeakFlowClient, error) {
	var creds credentials.TransportCredentials
	if o.plaintext {
		creds = insecure.NewCredentials()
	} else {
		c, err := loadTLS(o.caPath, o.insecure)
		if err != nil {
			return nil, nil, err
		}
		creds = c
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, secure: !o.plaintext}))
	}
	cc, err := grpc.NewClient(o.addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, api.NewPeakFlowClient(cc), nil
}

// ---- output ----

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML goes through JSON so field names match the wire format.
func printYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

// emit writes v in format; text falls back to text() when given.
func emit(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatYAML:
		return printYAML(w, v)
	case formatText:
		if text != nil {
			return text(w)
		}
		return printJSON(w, v)
	default:
		return printJSON(w, v)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `pf CLI
Usage:
  pf -addr HOST:PORT [-cacert file | -insecure | -plaintext] [-o text|json|yaml] <cmd> [args]

Commands:
  version
  register       -email <e> -p <password> [-name <name>]
  login          -email <e> -p <password>          (saves token)
  logout
  add            -v <L/min> [-condition 1..10] [-morning N] [-evening N] [-tz Zone]
  rm             -id <uuid>
  list           [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  summary        [-tz Zone]
  trend          -days 7|14|30|90 [-tz Zone]
  settings       [-threshold N] [-morning N] [-evening N] [-name S]   (no flags: show)
  reset-request  -email <e>
  reset-confirm  -email <e> -code <6 digits> -p <new password>
  export         -file <out.xlsx> [-from ..] [-to ..] [-tz Zone]
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and configures TLS/auth for RPC calls.
func main() {
	// global flags
	addr := flag.String("addr", "localhost:8443", "server addr")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecureTLS := flag.Bool("insecure", false, "skip cert verify (dev)")
	plaintext := flag.Bool("plaintext", false, "no TLS at all (dev)")
	format := flag.String("o", formatText, "output: text|json|yaml")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]
	o := connOpts{addr: *addr, caPath: *caPath, insecure: *insecureTLS, plaintext: *plaintext}

	ctx, cancel := withTimeout()
	defer cancel()

	switch cmd {
	case "version":
		fmt.Printf("pf %s (%s)\n", version, buildDate)
		return
	case "logout":
		if err := removeToken(); err != nil {
			fail(err)
		}
		fmt.Println("ok")
		return
	}

	c, ok := commands[cmd]
	if !ok {
		usage()
	}

	var bearer string
	if !c.public {
		tok, err := loadToken()
		if err != nil {
			fail(err)
		}
		bearer = tok
	}
	cc, cli, err := dial(o, bearer)
	if err != nil {
		fail(err)
	}
	defer cc.Close()

	if err := c.run(ctx, cli, args, env{out: os.Stdout, format: *format}); err != nil {
		fail(err)
	}
}

// ---- helpers ----

func fail(err error) {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s msg=%s\n", s.Code(), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func choose(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
