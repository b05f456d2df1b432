package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rony4d/go-ario/ario"
	"github.com/rony4d/go-ario/epochs"
	"github.com/rony4d/go-ario/gateways"
	"github.com/rony4d/go-ario/inter"
	"github.com/rony4d/go-ario/names"
)

var (
	ErrEvalSyntax          = errors.New("eval: syntax error")
	ErrEvalUnknownFunction = errors.New("eval: unknown function")
	ErrEvalArgs            = errors.New("eval: bad arguments")
)

// An eval script is a sequence of calls separated by newlines or semicolons:
//
//	print("hello world")
//	balance("FOOBAR")
//	transfer("FOOBAR", 1000000)
//
// Arguments are string and integer literals or nested calls. A statement that
// is not print or transfer is printed as if wrapped in print.
type builtin struct {
	min, max int
	fn       func(c *call, args []interface{}) (interface{}, error)
}

var builtins = map[string]builtin{
	"print": {0, -1, func(c *call, args []interface{}) (interface{}, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = format(a)
		}
		c.print(strings.Join(parts, " "))
		return nil, nil
	}},
	"balance": {1, 1, func(c *call, args []interface{}) (interface{}, error) {
		addr, err := addressArg(c, args[0])
		if err != nil {
			return nil, err
		}
		return c.st.Ledger.Balance(addr), nil
	}},
	"totalSupply": {0, 0, func(c *call, _ []interface{}) (interface{}, error) {
		return c.st.Supply().Total, nil
	}},
	"supply": {0, 0, func(c *call, _ []interface{}) (interface{}, error) {
		return c.st.Supply(), nil
	}},
	"protocolBalance": {0, 0, func(c *call, _ []interface{}) (interface{}, error) {
		return c.st.ProtocolBalance(), nil
	}},
	"demandFactor": {0, 0, func(c *call, _ []interface{}) (interface{}, error) {
		return c.st.Demand.DemandFactor(), nil
	}},
	"record": {1, 1, func(c *call, args []interface{}) (interface{}, error) {
		name, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		rec, ok := c.st.Names.Get(strings.ToLower(name))
		if !ok {
			return nil, names.ErrRecordNotFound
		}
		return rec, nil
	}},
	"gateway": {1, 1, func(c *call, args []interface{}) (interface{}, error) {
		addr, err := addressArg(c, args[0])
		if err != nil {
			return nil, err
		}
		g, ok := c.st.Gateways.Get(addr)
		if !ok {
			return nil, gateways.ErrGatewayNotFound
		}
		return g, nil
	}},
	"epoch": {0, 1, func(c *call, args []interface{}) (interface{}, error) {
		if len(args) == 0 {
			e, ok := c.st.Epochs.Current(c.now())
			if !ok {
				return nil, epochs.ErrNoEpoch
			}
			return e.Copy(), nil
		}
		i, err := uintArg(args[0])
		if err != nil {
			return nil, err
		}
		e, ok := c.st.Epochs.Get(idx.Epoch(i))
		if !ok {
			return nil, epochs.ErrEpochNotFound
		}
		return e, nil
	}},
	"stateHash": {0, 0, func(c *call, _ []interface{}) (interface{}, error) {
		h := c.st.Hash()
		return hexutil.Encode(h[:]), nil
	}},
	"tokens": {1, 1, func(c *call, args []interface{}) (interface{}, error) {
		n, err := uintArg(args[0])
		if err != nil {
			return nil, err
		}
		return ario.FormatTokens(n), nil
	}},
	// transfer pays out of the protocol reserve.
	"transfer": {2, 2, func(c *call, args []interface{}) (interface{}, error) {
		to, err := addressArg(c, args[0])
		if err != nil {
			return nil, err
		}
		qty, err := uintArg(args[1])
		if err != nil {
			return nil, err
		}
		if qty == 0 {
			return nil, fmt.Errorf("%w: transfer of zero", ErrEvalArgs)
		}
		return nil, c.transfer(c.protocol(), to, qty, false)
	}},
}

func stringArg(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: want string, got %s", ErrEvalArgs, format(v))
	}
	return s, nil
}

func uintArg(v interface{}) (uint64, error) {
	n, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("%w: want integer, got %s", ErrEvalArgs, format(v))
	}
	return n, nil
}

func addressArg(c *call, v interface{}) (string, error) {
	s, err := stringArg(v)
	if err != nil {
		return "", err
	}
	addr, err := inter.ParseAddress(s, c.st.Rules.Ledger.AllowUnsafeAddresses)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEvalArgs, err)
	}
	return addr, nil
}

func format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	case uint64:
		return strconv.FormatUint(x, 10)
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

type evaluator struct {
	c    *call
	s    scanner.Scanner
	tok  rune
	errs []string
}

func handleEval(c *call) error {
	e := &evaluator{c: c}
	e.s.Init(strings.NewReader(c.msg.Data))
	e.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanRawStrings | scanner.ScanComments | scanner.SkipComments
	e.s.Error = func(s *scanner.Scanner, msg string) {
		e.errs = append(e.errs, fmt.Sprintf("%s: %s", s.Pos(), msg))
	}
	return e.run()
}

func (e *evaluator) next() error {
	e.tok = e.s.Scan()
	if len(e.errs) > 0 {
		return fmt.Errorf("%w: %s", ErrEvalSyntax, e.errs[0])
	}
	return nil
}

func (e *evaluator) unexpected() error {
	text := e.s.TokenText()
	if e.tok == scanner.EOF {
		text = "end of input"
	}
	return fmt.Errorf("%w: %s: unexpected %s", ErrEvalSyntax, e.s.Position, text)
}

func (e *evaluator) run() error {
	if err := e.next(); err != nil {
		return err
	}
	for e.tok != scanner.EOF {
		if e.tok == ';' {
			if err := e.next(); err != nil {
				return err
			}
			continue
		}
		v, err := e.expr()
		if err != nil {
			return err
		}
		if v != nil {
			e.c.print(format(v))
		}
	}
	return nil
}

func (e *evaluator) expr() (interface{}, error) {
	switch e.tok {
	case scanner.String, scanner.RawString:
		v, err := strconv.Unquote(e.s.TokenText())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEvalSyntax, e.s.Position, err)
		}
		return v, e.next()
	case scanner.Int:
		v, err := strconv.ParseUint(e.s.TokenText(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEvalSyntax, e.s.Position, err)
		}
		return v, e.next()
	case scanner.Ident:
		return e.call()
	}
	return nil, e.unexpected()
}

func (e *evaluator) call() (interface{}, error) {
	name := e.s.TokenText()
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEvalUnknownFunction, name)
	}
	if err := e.next(); err != nil {
		return nil, err
	}
	if e.tok != '(' {
		return nil, e.unexpected()
	}
	if err := e.next(); err != nil {
		return nil, err
	}
	var args []interface{}
	for e.tok != ')' {
		if len(args) > 0 {
			if e.tok != ',' {
				return nil, e.unexpected()
			}
			if err := e.next(); err != nil {
				return nil, err
			}
		}
		v, err := e.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if err := e.next(); err != nil {
		return nil, err
	}
	if len(args) < b.min || (b.max >= 0 && len(args) > b.max) {
		return nil, fmt.Errorf("%w: %s takes %s, got %d", ErrEvalArgs, name, arity(b), len(args))
	}
	return b.fn(e.c, args)
}

func arity(b builtin) string {
	switch {
	case b.max < 0:
		return fmt.Sprintf("at least %d", b.min)
	case b.min == b.max:
		return strconv.Itoa(b.min)
	}
	return fmt.Sprintf("%d to %d", b.min, b.max)
}
