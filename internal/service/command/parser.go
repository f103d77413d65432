package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Verb string

const (
	VerbStartAlerts   Verb = "start alerts"
	VerbStopAlerts    Verb = "stop alerts"
	VerbEnableAlerts  Verb = "enable alerts"
	VerbDisableAlerts Verb = "disable alerts"
	VerbPump          Verb = "pump"
	VerbDump          Verb = "dump"
	VerbVolume        Verb = "volume"
	VerbMinVolume     Verb = "minvol"
	VerbCooldown      Verb = "cooldown"
	VerbInterval      Verb = "interval"
	VerbAdd           Verb = "add"
	VerbRemove        Verb = "remove"
	VerbSymbols       Verb = "symbols"
	VerbSettings      Verb = "settings"
	VerbStats         Verb = "alert stats"
	VerbHelp          Verb = "help"
)

type argKind int

const (
	argNone argKind = iota
	argNumber
	argSymbol
)

var grammar = map[string]argKind{
	string(VerbStartAlerts):   argNone,
	string(VerbStopAlerts):    argNone,
	string(VerbEnableAlerts):  argNone,
	string(VerbDisableAlerts): argNone,
	string(VerbPump):          argNumber,
	string(VerbDump):          argNumber,
	string(VerbVolume):        argNumber,
	string(VerbMinVolume):     argNumber,
	string(VerbCooldown):      argNumber,
	string(VerbInterval):      argNumber,
	string(VerbAdd):           argSymbol,
	string(VerbRemove):        argSymbol,
	string(VerbSymbols):       argNone,
	string(VerbSettings):      argNone,
	string(VerbStats):         argNone,
	string(VerbHelp):          argNone,
}

// 别名
var aliases = map[string]Verb{
	"stats":  VerbStats,
	"start":  VerbStartAlerts,
	"stop":   VerbStopAlerts,
	"status": VerbSettings,
}

// Command 一条已经通过语法检查的命令. 数值范围由配置存储校验.
type Command struct {
	Verb   Verb
	Number float64
	Symbol string
}

var (
	ErrEmpty   = errors.New("empty command")
	ErrUnknown = errors.New("unknown command")
)

// ArgError 参数缺失或格式错误
type ArgError struct {
	Verb   Verb
	Arg    string
	Reason string
}

func (e *ArgError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("%s: %s", e.Verb, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Verb, e.Arg, e.Reason)
}

// Parse accepts "<verb> [arg]" case-insensitively. A leading "/" and a
// "@botname" suffix on the first word are ignored, so "/pump@bot 20" works.
func Parse(text string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	first := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(first, '@'); i >= 0 {
		first = first[:i]
	}
	fields[0] = first

	// 先匹配两个词的动词
	var (
		verb Verb
		rest []string
	)
	if len(fields) >= 2 {
		if _, ok := grammar[fields[0]+" "+fields[1]]; ok {
			verb, rest = Verb(fields[0]+" "+fields[1]), fields[2:]
		}
	}
	if verb == "" {
		if _, ok := grammar[fields[0]]; ok {
			verb, rest = Verb(fields[0]), fields[1:]
		} else if v, ok := aliases[fields[0]]; ok {
			verb, rest = v, fields[1:]
		} else {
			return Command{}, fmt.Errorf("%w: %s", ErrUnknown, fields[0])
		}
	}

	cmd := Command{Verb: verb}
	switch grammar[string(verb)] {
	case argNone:
		if len(rest) > 0 {
			return Command{}, &ArgError{Verb: verb, Arg: strings.Join(rest, " "), Reason: "takes no argument"}
		}
	case argNumber:
		if len(rest) != 1 {
			return Command{}, &ArgError{Verb: verb, Reason: "expects exactly one number"}
		}
		n, err := strconv.ParseFloat(strings.TrimSuffix(rest[0], "%"), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Command{}, &ArgError{Verb: verb, Arg: rest[0], Reason: "not a number"}
		}
		cmd.Number = n
	case argSymbol:
		if len(rest) != 1 {
			return Command{}, &ArgError{Verb: verb, Reason: "expects exactly one symbol"}
		}
		cmd.Symbol = rest[0]
	}
	return cmd, nil
}
