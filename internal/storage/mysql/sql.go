package mysql

import (
	"fmt"
	"regexp"
	"strings"

	"restate_api/internal/domain"
)

const upsertDocumentSQL = `
INSERT INTO documents (collection_id, id, fields)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  fields     = VALUES(fields),
  updated_at = CURRENT_TIMESTAMP(3)
`

const getDocumentSQL = `
SELECT id, collection_id, fields, created_at
FROM documents
WHERE collection_id = ? AND id = ?
`

const listDocumentsPrefix = `
SELECT id, collection_id, fields, created_at
FROM documents
WHERE collection_id = ?`

// attribute names must stay plain identifiers before they are inlined
// into a JSON path
var attrPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// fieldExpr maps an attribute to a SQL expression. The $createdAt system
// attribute lives in its own column; everything else is extracted from
// the JSON payload.
func fieldExpr(attr string) (string, error) {
	if attr == "$createdAt" || attr == "createdAt" {
		return "created_at", nil
	}
	if !attrPattern.MatchString(attr) {
		return "", fmt.Errorf("invalid attribute %q", attr)
	}
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(fields, '$.%s'))", attr), nil
}

// buildListSQL compiles a predicate sequence into one SELECT. WHERE
// clauses keep the order the predicates were given in.
func buildListSQL(collection string, preds []domain.Predicate) (string, []any, error) {
	var (
		where   []string
		orderBy string
		limit   bool
		limitN  int
	)
	args := []any{collection}

	for _, p := range preds {
		switch p.Op {
		case domain.OpOrderDesc:
			expr, err := fieldExpr(p.Field)
			if err != nil {
				return "", nil, err
			}
			orderBy = " ORDER BY " + expr + " DESC, id DESC"

		case domain.OpEqual:
			expr, err := fieldExpr(p.Field)
			if err != nil {
				return "", nil, err
			}
			where = append(where, expr+" = ?")
			args = append(args, p.Value)

		case domain.OpSearch:
			parts := make([]string, 0, len(p.Fields))
			for _, f := range p.Fields {
				expr, err := fieldExpr(f)
				if err != nil {
					return "", nil, err
				}
				parts = append(parts, expr+" LIKE ?")
				args = append(args, "%"+likeEscaper.Replace(p.Value)+"%")
			}
			where = append(where, "("+strings.Join(parts, " OR ")+")")

		case domain.OpLimit:
			limit = true
			limitN = p.Count

		default:
			return "", nil, fmt.Errorf("unknown predicate op %q", p.Op)
		}
	}

	q := listDocumentsPrefix
	for _, w := range where {
		q += " AND " + w
	}
	q += orderBy
	if limit {
		q += " LIMIT ?"
		args = append(args, limitN)
	}
	return q, args, nil
}
