package sqltoken

import "strings"

var keywords = map[string]Token{
	"select": SELECT, "from": FROM, "where": WHERE, "and": AND, "or": OR,
	"not": NOT, "between": BETWEEN, "like": LIKE, "null": NULL_KW, "as": AS,
	"order": ORDER, "by": BY, "asc": ASC, "desc": DESC, "limit": LIMIT,
	"insert": INSERT, "into": INTO, "values": VALUES, "update": UPDATE,
	"set": SET, "delete": DELETE, "create": CREATE, "table": TABLE,
	"index": INDEX, "on": ON, "drop": DROP, "primary": PRIMARY, "key": KEY,
	"unique": UNIQUE, "integer": INTEGER_KW, "int": INT_KW, "real": REAL_KW,
	"float": FLOAT_KW, "text": TEXT_KW, "vector": VECTOR_KW,
	"begin": BEGIN_KW, "commit": COMMIT_KW, "rollback": ROLLBACK_KW,
	"transaction": TRANSACTION_KW,
}

// LookupIdent returns ident's keyword token if it names one of the
// dialect's (case-insensitive) reserved words, or IDENT otherwise.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}
