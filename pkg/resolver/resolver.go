package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/futuretea/kube-current-token/pkg/kubeconfig"
)

// Lookup modes
const (
	// LookupUserName matches users[].name against current-context directly.
	LookupUserName = "user-name"
	// LookupContext follows current-context to its context and then to the context's user.
	LookupContext = "context"
)

var (
	// ErrUserNotFound is returned when no user entry matches the current context.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenMissing is returned when the matched user carries no token.
	ErrTokenMissing = errors.New("user has no token")
)

// IsValidLookup checks if the given lookup mode is supported
func IsValidLookup(mode string) bool {
	switch mode {
	case LookupUserName, LookupContext:
		return true
	default:
		return false
	}
}

// Result is a resolved credential.
type Result struct {
	Context string `json:"context" yaml:"context"`
	User    string `json:"user" yaml:"user"`
	Token   string `json:"token" yaml:"token"`
}

// Resolver finds the token of the active user in a kubeconfig file.
type Resolver struct {
	path   string
	lookup string
}

// New creates a resolver for the kubeconfig at path. An empty lookup selects LookupUserName.
func New(path, lookup string) (*Resolver, error) {
	if lookup == "" {
		lookup = LookupUserName
	}
	if !IsValidLookup(lookup) {
		return nil, fmt.Errorf("unknown lookup mode %q", lookup)
	}
	return &Resolver{path: path, lookup: lookup}, nil
}

// Resolve reads the kubeconfig once and returns the active user's token.
// Errors are ErrUserNotFound, ErrTokenMissing, a *kubeconfig.ParseError, or a file access error.
func (r *Resolver) Resolve() (*Result, error) {
	log.Debug().Str("path", r.path).Str("lookup", r.lookup).Msg("resolving token")

	if r.lookup == LookupContext {
		return r.resolveContext()
	}
	return r.resolveUserName()
}

func (r *Resolver) resolveUserName() (*Result, error) {
	doc, err := kubeconfig.LoadFile(r.path)
	if err != nil {
		return nil, err
	}

	if doc.CurrentContext == "" {
		log.Debug().Msg("current-context is not set")
		return nil, ErrUserNotFound
	}

	entry, ok := doc.FindUser(doc.CurrentContext)
	if !ok {
		log.Debug().Str("context", doc.CurrentContext).Int("users", len(doc.Users)).Msg("no matching user entry")
		return nil, ErrUserNotFound
	}

	token, err := readToken(entry.User.Token, entry.User.TokenFile, r.path)
	if err != nil {
		return nil, err
	}
	return &Result{Context: doc.CurrentContext, User: entry.Name, Token: token}, nil
}

func (r *Resolver) resolveContext() (*Result, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}

	config, err := clientcmd.Load(data)
	if err != nil {
		return nil, &kubeconfig.ParseError{Path: r.path, Err: err}
	}

	context, ok := config.Contexts[config.CurrentContext]
	if !ok || context == nil {
		log.Debug().Str("context", config.CurrentContext).Msg("current context not defined")
		return nil, ErrUserNotFound
	}
	authInfo, ok := config.AuthInfos[context.AuthInfo]
	if !ok || authInfo == nil {
		log.Debug().Str("context", config.CurrentContext).Str("user", context.AuthInfo).Msg("context user not defined")
		return nil, ErrUserNotFound
	}

	// clientcmd does not keep key presence, so an empty token counts as absent here.
	var inline *string
	if authInfo.Token != "" {
		inline = &authInfo.Token
	}
	token, err := readToken(inline, authInfo.TokenFile, r.path)
	if err != nil {
		return nil, err
	}
	return &Result{Context: config.CurrentContext, User: context.AuthInfo, Token: token}, nil
}

// readToken prefers an inline token, even an empty one, over a token file.
// Relative token file paths are resolved against the kubeconfig's directory.
func readToken(token *string, tokenFile, configPath string) (string, error) {
	if token != nil {
		return *token, nil
	}
	if tokenFile == "" {
		return "", ErrTokenMissing
	}

	if !filepath.IsAbs(tokenFile) {
		tokenFile = filepath.Join(filepath.Dir(configPath), tokenFile)
	}
	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", tokenFile, err)
	}

	fileToken := strings.TrimSpace(string(data))
	if fileToken == "" {
		return "", ErrTokenMissing
	}
	return fileToken, nil
}
