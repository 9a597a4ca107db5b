// Command dk is a CLI client for the discokeeper service.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	apiv1 "github.com/and161185/discokeeper/api/discovery/v1"
	"github.com/and161185/discokeeper/internal/service"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "discokeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "discokeeper")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
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
		return "", errors.New("no valid token (run dk token)")
	}
	return tf.AccessToken, nil
}

// ---- grpc dial ----

type bearerCreds struct {
	token     string
	plaintext bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return !b.plaintext }

func loadTLS(caPath string, insecureSkip bool) (credentials.TransportCredentials, error) {
	if insecureSkip {
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

type dialOptions struct {
	addr      string
	caPath    string
	insecure  bool
	plaintext bool
}

func dial(ctx context.Context, o dialOptions, bearer string) (*grpc.ClientConn, apiv1.DiscoveryClient, error) {
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
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, plaintext: o.plaintext}))
	}
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(ctx, o.addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, apiv1.NewDiscoveryClient(cc), nil
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// urlList collects a repeated -url flag.
type urlList []string

func (l *urlList) String() string { return strings.Join(*l, ",") }
func (l *urlList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("empty url")
	}
	*l = append(*l, v)
	return nil
}

// issueToken mints an access token for account with the server's signing key.
// An empty account gets a fresh id.
func issueToken(key, account string, ttl time.Duration) (string, u.UUID, time.Time, error) {
	if key == "" {
		return "", u.Nil, time.Time{}, errors.New("empty signing key")
	}
	var id u.UUID
	if account == "" {
		var err error
		if id, err = u.NewV4(); err != nil {
			return "", u.Nil, time.Time{}, err
		}
	} else {
		var err error
		if id, err = u.FromString(account); err != nil {
			return "", u.Nil, time.Time{}, fmt.Errorf("bad account id: %w", err)
		}
	}
	tok, exp, err := service.NewTokenService([]byte(key), ttl).Issue(id)
	if err != nil {
		return "", u.Nil, time.Time{}, err
	}
	return tok, id, exp, nil
}

// describeChange renders a submit/disconnect outcome for humans.
func describeChange(r *apiv1.ChangeResponse) string {
	switch {
	case r.Applied && r.Server == "":
		return "identity server disconnected"
	case r.Applied:
		return "identity server set to " + r.Server
	case r.Confirmation != nil && r.Confirmation.CandidateServer != "":
		return fmt.Sprintf("identifiers are shared with %s; re-run with -yes to switch to %s",
			r.Confirmation.CurrentServer, r.Confirmation.CandidateServer)
	case r.Confirmation != nil:
		return fmt.Sprintf("identifiers are shared with %s; re-run with -yes to disconnect",
			r.Confirmation.CurrentServer)
	case r.Navigation != nil && r.Navigation.Kind == "show_terms":
		return fmt.Sprintf("%s requires accepting terms: %s", r.Navigation.Server,
			strings.Join(r.Navigation.PendingURLs, " "))
	default:
		return "no change"
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `dk CLI
Usage:
  dk -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  token        -key <jwt-key> [-account <uuid>] [-ttl 24h]   (saves token)
  link         -hs <homeserver url> -token <access token>
  status
  add          -medium email|msisdn -address <addr>
  rm           -medium email|msisdn -address <addr>
  set-server   -server <url> [-yes]
  disconnect   [-yes]
  accept-terms -server <url> -url <policy url> [-url ...]
  share        -medium email|msisdn -address <addr>
  revoke       -medium email|msisdn -address <addr>
  check        -medium email|msisdn -address <addr> [-bind]
  verify-phone -msisdn <number> -code <sms code> [-bind]
  resume
  pause
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
	var o dialOptions
	flag.StringVar(&o.addr, "addr", "localhost:8443", "server addr")
	flag.StringVar(&o.caPath, "cacert", "", "CA cert (PEM)")
	flag.BoolVar(&o.insecure, "insecure", false, "skip cert verify (dev)")
	flag.BoolVar(&o.plaintext, "plaintext", false, "no TLS at all (server in dev mode)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("dk %s (%s)\n", version, buildDate)
		return

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		key := fs.String("key", os.Getenv("DK_JWT_KEY"), "server signing key")
		account := fs.String("account", "", "account id (uuid); empty creates one")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		_ = fs.Parse(args)
		tok, id, exp, err := issueToken(*key, *account, *ttl)
		if err != nil {
			fail(err)
		}
		if err := saveToken(tok, exp); err != nil {
			fail(err)
		}
		fmt.Printf("token for account %s saved, expires %s\n", id, exp.UTC().Format(time.RFC3339))
		return
	}

	tok, err := loadToken()
	if err != nil {
		fail(err)
	}
	cc, cli, err := dial(ctx, o, tok)
	if err != nil {
		fail(err)
	}
	defer cc.Close()

	switch cmd {

	case "link":
		fs := flag.NewFlagSet("link", flag.ExitOnError)
		hs := fs.String("hs", "", "homeserver url")
		at := fs.String("token", "", "homeserver access token")
		_ = fs.Parse(args)
		if *hs == "" || *at == "" {
			usage()
		}
		resp, err := cli.LinkAccount(ctx, &apiv1.LinkAccountRequest{Homeserver: *hs, AccessToken: *at})
		if err != nil {
			fail(err)
		}
		printJSON(resp.Settings)

	case "status":
		resp, err := cli.GetSettings(ctx, &apiv1.GetSettingsRequest{})
		if err != nil {
			fail(err)
		}
		printJSON(resp.Settings)

	case "add", "rm", "share", "revoke", "check":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		medium := fs.String("medium", "email", "email or msisdn")
		address := fs.String("address", "", "identifier address")
		bind := fs.Bool("bind", false, "bind after verification (check only)")
		_ = fs.Parse(args)
		if *address == "" {
			usage()
		}
		req := &apiv1.IdentifierRequest{Medium: *medium, Address: *address}
		var resp *apiv1.IdentifierResponse
		switch cmd {
		case "add":
			resp, err = cli.AddIdentifier(ctx, req)
		case "rm":
			resp, err = cli.RemoveIdentifier(ctx, req)
		case "share":
			resp, err = cli.ShareIdentifier(ctx, req)
		case "revoke":
			resp, err = cli.RevokeIdentifier(ctx, req)
		case "check":
			resp, err = cli.CheckVerification(ctx, &apiv1.CheckVerificationRequest{
				Medium: *medium, Address: *address, Bind: *bind,
			})
		}
		if err != nil {
			fail(err)
		}
		printJSON(resp.Pid)

	case "set-server":
		fs := flag.NewFlagSet("set-server", flag.ExitOnError)
		server := fs.String("server", "", "identity server url")
		yes := fs.Bool("yes", false, "confirm when identifiers are shared")
		_ = fs.Parse(args)
		if _, err := cli.SetCandidate(ctx, &apiv1.SetCandidateRequest{Server: *server}); err != nil {
			fail(err)
		}
		resp, err := cli.SubmitIdentityServer(ctx, &apiv1.SubmitIdentityServerRequest{Confirmed: *yes})
		if err != nil {
			fail(err)
		}
		fmt.Println(describeChange(resp))

	case "disconnect":
		fs := flag.NewFlagSet("disconnect", flag.ExitOnError)
		yes := fs.Bool("yes", false, "confirm when identifiers are shared")
		_ = fs.Parse(args)
		resp, err := cli.DisconnectIdentityServer(ctx, &apiv1.DisconnectIdentityServerRequest{Confirmed: *yes})
		if err != nil {
			fail(err)
		}
		fmt.Println(describeChange(resp))

	case "accept-terms":
		fs := flag.NewFlagSet("accept-terms", flag.ExitOnError)
		server := fs.String("server", "", "identity server url")
		var urls urlList
		fs.Var(&urls, "url", "accepted policy url (repeatable)")
		_ = fs.Parse(args)
		if *server == "" || len(urls) == 0 {
			usage()
		}
		if _, err := cli.AcceptTerms(ctx, &apiv1.AcceptTermsRequest{Server: *server, URLs: urls}); err != nil {
			fail(err)
		}
		fmt.Println("accepted")

	case "verify-phone":
		fs := flag.NewFlagSet("verify-phone", flag.ExitOnError)
		msisdn := fs.String("msisdn", "", "phone number")
		code := fs.String("code", "", "sms code")
		bind := fs.Bool("bind", false, "bind after verification")
		_ = fs.Parse(args)
		if *msisdn == "" || *code == "" {
			usage()
		}
		resp, err := cli.SubmitPhoneToken(ctx, &apiv1.SubmitPhoneTokenRequest{Msisdn: *msisdn, Code: *code, Bind: *bind})
		if err != nil {
			fail(err)
		}
		printJSON(resp.Pid)

	case "resume":
		resp, err := cli.Resume(ctx, &apiv1.ResumeRequest{})
		if err != nil {
			fail(err)
		}
		printJSON(resp.Results)

	case "pause":
		if _, err := cli.Pause(ctx, &apiv1.PauseRequest{}); err != nil {
			fail(err)
		}
		fmt.Println("paused")

	default:
		usage()
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
