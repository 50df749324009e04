// Package kaggle resolves dataset credentials and downloads dataset
// archives from the Kaggle API.
package kaggle

import (
	"os"
	"path/filepath"
)

// Environment variables and the well-known credentials file consulted
// during resolution.
const (
	EnvToken    = "KAGGLE_API_TOKEN"
	EnvUsername = "KAGGLE_USERNAME"
	EnvKey      = "KAGGLE_KEY"

	credentialsFileName = "kaggle.json"
	credentialsDirName  = ".kaggle"
)

// Kind discriminates the credential forms the resolver can produce.
type Kind string

const (
	KindToken  Kind = "token"
	KindLegacy Kind = "legacy"
	KindFile   Kind = "file"
	KindNone   Kind = "none"
)

// Credentials is a resolved dataset credential. Only the fields for its
// Kind are set. A KindFile credential carries just the file path: the
// resolver never parses the file, it defers that to the download call.
type Credentials struct {
	Kind     Kind
	Token    string
	Username string
	Key      string
	Path     string
}

// ResolveOptions carries the explicit inputs and the environment snapshot
// for one resolution. Env and Home default to the real process environment
// and are injectable for tests.
type ResolveOptions struct {
	Token    string
	Username string
	Key      string

	Env  func(string) string
	Home func() (string, error)
}

func (o ResolveOptions) withDefaults() ResolveOptions {
	if o.Env == nil {
		o.Env = os.Getenv
	}
	if o.Home == nil {
		o.Home = os.UserHomeDir
	}
	return o
}

// strategy inspects one credential source. It returns ok=false to defer to
// the next source in the chain.
type strategy func(ResolveOptions) (Credentials, bool)

// resolutionOrder is the fixed source priority. Earlier sources fully
// shadow later ones.
var resolutionOrder = []strategy{
	explicitToken,
	envToken,
	explicitLegacy,
	envLegacy,
	credentialsFile,
}

// Resolve walks the source priority chain and returns the first match:
//
//	1. explicit token parameter
//	2. KAGGLE_API_TOKEN environment variable
//	3. explicit username+key parameters (both required)
//	4. KAGGLE_USERNAME+KAGGLE_KEY environment variables (both required)
//	5. ~/.kaggle/kaggle.json, if the file exists
//	6. KindNone
//
// Resolution is a pure function of the options snapshot: no side effects,
// deterministic for a fixed environment. KindNone is not an error here;
// callers surface it only when credentials are actually required.
func Resolve(opts ResolveOptions) Credentials {
	opts = opts.withDefaults()
	for _, source := range resolutionOrder {
		if creds, ok := source(opts); ok {
			return creds
		}
	}
	return Credentials{Kind: KindNone}
}

func explicitToken(o ResolveOptions) (Credentials, bool) {
	if o.Token == "" {
		return Credentials{}, false
	}
	return Credentials{Kind: KindToken, Token: o.Token}, true
}

func envToken(o ResolveOptions) (Credentials, bool) {
	tok := o.Env(EnvToken)
	if tok == "" {
		return Credentials{}, false
	}
	return Credentials{Kind: KindToken, Token: tok}, true
}

// explicitLegacy requires both halves; one without the other is absent.
func explicitLegacy(o ResolveOptions) (Credentials, bool) {
	if o.Username == "" || o.Key == "" {
		return Credentials{}, false
	}
	return Credentials{Kind: KindLegacy, Username: o.Username, Key: o.Key}, true
}

func envLegacy(o ResolveOptions) (Credentials, bool) {
	user, key := o.Env(EnvUsername), o.Env(EnvKey)
	if user == "" || key == "" {
		return Credentials{}, false
	}
	return Credentials{Kind: KindLegacy, Username: user, Key: key}, true
}

// credentialsFile checks existence only. Parsing happens at download time
// so a malformed file fails the download, not the resolution.
func credentialsFile(o ResolveOptions) (Credentials, bool) {
	home, err := o.Home()
	if err != nil {
		return Credentials{}, false
	}
	path := filepath.Join(home, credentialsDirName, credentialsFileName)
	if _, err := os.Stat(path); err != nil {
		return Credentials{}, false
	}
	return Credentials{Kind: KindFile, Path: path}, true
}
