package router

import (
	"strings"

	"github.com/vyrodovalexey/meshrouter/internal/rpcurl"
	"github.com/vyrodovalexey/meshrouter/internal/util"
)

// Rule URL parameter keys.
const (
	RuleKey     = "rule"
	PriorityKey = "priority"
	ForceKey    = "force"
	MeshPortKey = "meshport"
)

// DefaultMeshPort is the sidecar port used when a rule does not name one.
const DefaultMeshPort = "9090"

const (
	whenThenSeparator = "=>"
	consumerPrefix    = "consumer."
	providerPrefix    = "provider."
)

// Rule is a parsed mesh routing rule. It is never modified after parsing.
type Rule struct {
	// HostPattern is matched against the local host address.
	HostPattern string
	// Redirect is true when matched calls go to the mesh sidecar.
	Redirect bool
	// Priority orders rules of the same kind; lower runs first.
	Priority int
	// Force returns an empty invoker list when no sidecar is found.
	Force bool
	// MeshPort is the sidecar port.
	MeshPort string
	// Text is the rule text as configured.
	Text string
	// Source is the canonical string of the configuration URL.
	Source string
}

// ParseRule parses rule text of the form
//
//	[consumer.|provider.]host = <glob> => <true|false>
//
// The host clause has every 'h', 'o', 's', 't' and '=' character removed,
// not only the "host=" keyword, so patterns must not contain those
// characters. Rule text without "=>" is used whole for both clauses.
func ParseRule(text string, priority int, force bool, meshPort, source string) (*Rule, error) {
	if strings.TrimSpace(text) == "" {
		return nil, util.NewInvalidRuleError(text, "rule text is empty")
	}
	if meshPort == "" {
		meshPort = DefaultMeshPort
	}

	body := strings.ReplaceAll(text, consumerPrefix, "")
	body = strings.ReplaceAll(body, providerPrefix, "")

	hostClause, modeClause := body, body
	if i := strings.Index(body, whenThenSeparator); i >= 0 {
		hostClause = body[:i]
		modeClause = body[i+len(whenThenSeparator):]
	}

	return &Rule{
		HostPattern: strings.TrimSpace(stripHostKeyword(hostClause)),
		Redirect:    strings.EqualFold(strings.TrimSpace(modeClause), "true"),
		Priority:    priority,
		Force:       force,
		MeshPort:    meshPort,
		Text:        text,
		Source:      source,
	}, nil
}

func stripHostKeyword(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'h', 'o', 's', 't', '=':
			return -1
		}
		return r
	}, s)
}

// RuleFromURL parses the rule carried by a configuration URL. The rule
// parameter is used as stored: Parse has already unescaped it once.
func RuleFromURL(u *rpcurl.URL) (*Rule, error) {
	if u == nil {
		return nil, util.NewInvalidRuleError("", "rule url is nil")
	}
	return ParseRule(
		u.Param(RuleKey),
		u.ParamInt(PriorityKey, 0),
		u.ParamBool(ForceKey, false),
		u.ParamDefault(MeshPortKey, DefaultMeshPort),
		u.FullString(),
	)
}
