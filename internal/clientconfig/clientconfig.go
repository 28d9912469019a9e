// Package clientconfig resolves the CLI client's cfg:// endpoint form
// (spec §6) against a small flat key=value file, reusing the same scanning
// approach as internal/config since both files share the same on-disk
// shape — the difference is purely in which keys are recognised.
package clientconfig

import (
	"bufio"
	"os"
	"strings"

	streamyerrors "github.com/forgerun/runnerd/pkg/errors"
)

// Node is one named remote endpoint resolved from a "node.<name>.*" group
// of keys.
type Node struct {
	Address string
	CACert  string
	Domain  string
}

// TLS reports whether this node's connection should use TLS: a certificate
// plus a domain implies TLS, per spec §6.
func (n Node) TLS() bool {
	return n.CACert != "" && n.Domain != ""
}

// File is a parsed client-side configuration file.
type File struct {
	raw map[string]string
}

// Load reads a client configuration file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, streamyerrors.NewConfigError(path, "Configuration is not available", err)
	}
	defer f.Close()

	raw := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		raw[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &File{raw: raw}, nil
}

// Resolve looks up "node.<name>.address", "node.<name>.ca_cert", and
// "node.<name>.domain" for the given name.
func (f *File) Resolve(name string) (Node, error) {
	address, ok := f.raw["node."+name+".address"]
	if !ok || address == "" {
		return Node{}, streamyerrors.NewConfigError("node."+name+".address", "node is not configured", nil)
	}
	return Node{
		Address: address,
		CACert:  f.raw["node."+name+".ca_cert"],
		Domain:  f.raw["node."+name+".domain"],
	}, nil
}
