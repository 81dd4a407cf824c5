package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// LookupFunc reads one environment variable; os.LookupEnv in production.
type LookupFunc func(name string) (string, bool)

// Secrets holds the values of the required environment secrets, resolved
// once at startup.
type Secrets map[string]string

// Values returns the secret values, for log redaction.
func (s Secrets) Values() []string {
	values := make([]string, 0, len(s))
	for _, v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// MissingEnvError lists every required variable absent from the environment.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	msgs := make([]string, len(e.Names))
	for i, n := range e.Names {
		msgs[i] = fmt.Sprintf("missing environment variable %s", n)
	}
	return strings.Join(msgs, "; ")
}

// ResolveSecrets reads every name through lookup. A variable that is set,
// even to an empty string, counts as present. All missing names are
// reported together.
func ResolveSecrets(names []string, lookup LookupFunc) (Secrets, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	secrets := make(Secrets, len(names))
	var missing []string
	for _, name := range names {
		value, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		secrets[name] = value
	}

	if len(missing) > 0 {
		return nil, &MissingEnvError{Names: missing}
	}
	return secrets, nil
}
