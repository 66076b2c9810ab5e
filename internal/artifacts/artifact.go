package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrNotFound   = errors.New("contract artifact not found")
	ErrAmbiguous  = errors.New("contract name is ambiguous")
	ErrNoBytecode = errors.New("contract has no creation bytecode")
	ErrUnlinked   = errors.New("contract bytecode has unlinked libraries")
)

// Factory holds everything needed to deploy one compiled contract.
type Factory struct {
	Name       string
	SourceName string
	ABI        abi.ABI
	Bytecode   []byte
}

// FullyQualifiedName returns the "source:Name" form used for lookups.
func (f *Factory) FullyQualifiedName() string {
	return f.SourceName + ":" + f.Name
}

type linkReferences map[string]map[string]json.RawMessage

// bytecodeField accepts both the Hardhat form (a hex string) and the
// Foundry form ({"object": "0x..", "linkReferences": {..}}).
type bytecodeField struct {
	Object         string
	LinkReferences linkReferences
}

func (b *bytecodeField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Object)
	}

	var obj struct {
		Object         string         `json:"object"`
		LinkReferences linkReferences `json:"linkReferences"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.Object = obj.Object
	b.LinkReferences = obj.LinkReferences
	return nil
}

// artifact is the on-disk compilation output of a single contract.
type artifact struct {
	Format         string          `json:"_format"`
	ContractName   string          `json:"contractName"`
	SourceName     string          `json:"sourceName"`
	ABI            json.RawMessage `json:"abi"`
	Bytecode       bytecodeField   `json:"bytecode"`
	LinkReferences linkReferences  `json:"linkReferences"`
	Metadata       json.RawMessage `json:"metadata"`

	path string
}

// compilationTarget extracts the source and contract name from Foundry
// metadata. Hardhat artifacts carry no metadata object.
func (a *artifact) compilationTarget() (source string, name string) {
	if len(a.Metadata) == 0 || a.Metadata[0] != '{' {
		return "", ""
	}
	var meta struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(a.Metadata, &meta); err != nil {
		return "", ""
	}
	for s, n := range meta.Settings.CompilationTarget {
		return s, n
	}
	return "", ""
}

func (a *artifact) hasLinkReferences() bool {
	return len(a.LinkReferences) > 0 || len(a.Bytecode.LinkReferences) > 0
}

// factory validates the artifact and turns it into a deployable Factory.
func (a *artifact) factory() (*Factory, error) {
	name := a.ContractName + " (" + a.SourceName + ")"

	code := strings.TrimSpace(a.Bytecode.Object)
	if code == "" || code == "0x" {
		return nil, fmt.Errorf("%s: %w", name, ErrNoBytecode)
	}
	if a.hasLinkReferences() || strings.Contains(code, "__") {
		return nil, fmt.Errorf("%s: %w", name, ErrUnlinked)
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid bytecode: %w", name, err)
	}

	parsedABI := abi.ABI{}
	if len(a.ABI) > 0 {
		parsedABI, err = abi.JSON(bytes.NewReader(a.ABI))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse ABI: %w", name, err)
		}
	}

	return &Factory{
		Name:       a.ContractName,
		SourceName: a.SourceName,
		ABI:        parsedABI,
		Bytecode:   bytecode,
	}, nil
}
