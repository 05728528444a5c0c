package dispatch

import (
	"math"
	"strconv"
	"strings"

	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func registerZSetCommands(d *Dispatcher) {
	d.register(&Command{Name: "ZADD", Class: ClassWrite, Arity: -4, Handler: cmdZAdd})
	d.register(&Command{Name: "ZREM", Class: ClassWrite, Arity: -3, Handler: cmdZRem})
	d.register(&Command{Name: "ZSCORE", Class: ClassRead, Arity: 3, Handler: cmdZScore})
	d.register(&Command{Name: "ZRANK", Class: ClassRead, Arity: 3, Handler: cmdZRank})
	d.register(&Command{Name: "ZCARD", Class: ClassRead, Arity: 2, Handler: cmdZCard})
	d.register(&Command{Name: "ZCOUNT", Class: ClassRead, Arity: 4, Handler: cmdZCount})
	d.register(&Command{Name: "ZRANGE", Class: ClassRead, Arity: -4, Handler: cmdZRange})
}

func parseScore(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) {
		return 0, store.ErrNotFloat
	}
	return f, nil
}

// cmdZAdd implements ZADD key [NX|XX] [GT|LT] [CH] [INCR] score member
// [score member ...].
func cmdZAdd(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	var flags store.ZAddFlags
	i := 2
	for i < len(args) {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			flags.NX = true
		case "XX":
			flags.XX = true
		case "GT":
			flags.GT = true
		case "LT":
			flags.LT = true
		case "CH":
			flags.CH = true
		case "INCR":
			flags.INCR = true
		default:
			goto scorePairs
		}
		i++
	}
scorePairs:
	if flags.NX && flags.XX {
		return resp.Value{}, store.ErrSyntax
	}
	if flags.GT && flags.LT {
		return resp.Value{}, store.ErrSyntax
	}
	if (flags.GT || flags.LT) && flags.NX {
		return resp.Value{}, store.ErrSyntax
	}
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return resp.Value{}, store.ErrSyntax
	}
	if flags.INCR && len(rest) != 2 {
		return resp.Value{}, store.NewSyntaxErrorf("INCR option supports a single increment-element pair")
	}

	members := make([]store.ZMember, 0, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		score, err := parseScore(rest[j])
		if err != nil {
			return resp.Value{}, err
		}
		members = append(members, store.ZMember{Member: string(rest[j+1]), Score: score})
	}

	result, err := d.Store.ZAdd(string(args[1]), flags, members)
	if err != nil {
		return resp.Value{}, err
	}
	if flags.INCR {
		if result.Aborted {
			return resp.NullBulkString(), nil
		}
		return resp.NewBulkStringFrom(formatScore(result.NewScore)), nil
	}
	if flags.CH {
		return resp.NewInteger(int64(result.Changed)), nil
	}
	return resp.NewInteger(int64(result.Added)), nil
}

func cmdZRem(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.ZRem(string(args[1]), toStrings(args[2:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdZScore(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	score, ok, err := d.Store.ZScore(string(args[1]), string(args[2]))
	if err != nil {
		return resp.Value{}, err
	}
	if !ok {
		return resp.NullBulkString(), nil
	}
	return resp.NewBulkStringFrom(formatScore(score)), nil
}

func cmdZRank(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	rank, ok, err := d.Store.ZRank(string(args[1]), string(args[2]))
	if err != nil {
		return resp.Value{}, err
	}
	if !ok {
		return resp.NullBulkString(), nil
	}
	return resp.NewInteger(int64(rank)), nil
}

func cmdZCard(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.ZCard(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdZCount(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	min, err := parseScore(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	max, err := parseScore(args[3])
	if err != nil {
		return resp.Value{}, err
	}
	n, err := d.Store.ZCount(string(args[1]), min, max)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

// cmdZRange implements ZRANGE key start stop [BYSCORE] [REV] [LIMIT offset
// count] [WITHSCORES]. BYLEX ranges are not supported: the sorted-set index
// keys by (score, member), not by member alone, so a lex-only scan would
// require a second index this server does not maintain.
func cmdZRange(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	var byScore, reverse, withScores, limitGiven bool
	limitOffset, limitCount := 0, 0

	i := 4
	for i < len(args) {
		switch strings.ToUpper(string(args[i])) {
		case "BYSCORE":
			byScore = true
		case "REV":
			reverse = true
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			if i+2 >= len(args) {
				return resp.Value{}, store.ErrSyntax
			}
			off, err := parseIntArg(args[i+1])
			if err != nil {
				return resp.Value{}, err
			}
			if off < 0 {
				return resp.Value{}, store.NewSyntaxErrorf("LIMIT offset must be non-negative")
			}
			cnt, err := parseIntArg(args[i+2])
			if err != nil {
				return resp.Value{}, err
			}
			limitOffset, limitCount = int(off), int(cnt)
			limitGiven = true
			i += 2
		default:
			return resp.Value{}, store.ErrSyntax
		}
		i++
	}

	var members []store.ZMember
	var err error
	if byScore {
		min, max, minExcl, maxExcl, perr := parseScoreRange(args[2], args[3])
		if perr != nil {
			return resp.Value{}, perr
		}
		members, err = d.Store.ZRangeByScore(string(args[1]), min, max, minExcl, maxExcl)
		if err == nil && reverse {
			members = reverseMembers(members)
		}
	} else {
		start, serr := parseIntArg(args[2])
		if serr != nil {
			return resp.Value{}, serr
		}
		stop, serr := parseIntArg(args[3])
		if serr != nil {
			return resp.Value{}, serr
		}
		members, err = d.Store.ZRangeByRank(string(args[1]), int(start), int(stop), reverse)
	}
	if err != nil {
		return resp.Value{}, err
	}

	if limitGiven {
		members = applyLimit(members, limitOffset, limitCount)
	}
	return zMembersToReply(members, withScores), nil
}

func parseScoreRange(minArg, maxArg []byte) (min, max float64, minExcl, maxExcl bool, err error) {
	min, minExcl, err = parseScoreBound(minArg)
	if err != nil {
		return
	}
	max, maxExcl, err = parseScoreBound(maxArg)
	return
}

func parseScoreBound(b []byte) (float64, bool, error) {
	s := string(b)
	excl := false
	if strings.HasPrefix(s, "(") {
		excl = true
		s = s[1:]
	}
	switch s {
	case "-inf":
		return math.Inf(-1), excl, nil
	case "+inf", "inf":
		return math.Inf(1), excl, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, store.NewSyntaxErrorf("min or max is not a float")
	}
	return f, excl, nil
}

// applyLimit slices members to the LIMIT offset/count window. A negative
// count means "no cap", matching Redis' LIMIT offset -1 meaning "return
// everything after offset".
func applyLimit(members []store.ZMember, offset, count int) []store.ZMember {
	if offset >= len(members) {
		return nil
	}
	members = members[offset:]
	if count >= 0 && count < len(members) {
		members = members[:count]
	}
	return members
}

func reverseMembers(members []store.ZMember) []store.ZMember {
	out := make([]store.ZMember, len(members))
	for i, m := range members {
		out[len(members)-1-i] = m
	}
	return out
}

func formatScore(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func zMembersToReply(members []store.ZMember, withScores bool) resp.Value {
	if !withScores {
		items := make([]resp.Value, len(members))
		for i, m := range members {
			items[i] = resp.NewBulkStringFrom(m.Member)
		}
		return resp.NewArray(items)
	}
	items := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		items = append(items, resp.NewBulkStringFrom(m.Member), resp.NewBulkStringFrom(formatScore(m.Score)))
	}
	return resp.NewArray(items)
}
