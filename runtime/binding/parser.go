package binding

import (
	"github.com/viant/bindly/state"
	"github.com/viant/parsly"
)

// Parse parses parameter declaration in the format: name[dataType](kind/location).
// Both the type and the location parts are optional.
func Parse(input []byte) (*Param, error) {
	cursor := parsly.NewCursor("", input, 0)
	param := &Param{}

	matched := cursor.MatchOne(identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	param.Name = matched.Text(cursor)

	matched = cursor.MatchAny(openSquareBracketToken, openParenToken)
	switch matched.Code {
	case openSquareBracketToken.Code:
		matched = cursor.MatchOne(dataTypeToken)
		if matched.Code != dataTypeToken.Code {
			return nil, cursor.NewError(dataTypeToken)
		}
		param.DataType = matched.Text(cursor)
		matched = cursor.MatchOne(closeSquareBracketToken)
		if matched.Code != closeSquareBracketToken.Code {
			return nil, cursor.NewError(closeSquareBracketToken)
		}
		matched = cursor.MatchAfterOptional(whitespaceToken, openParenToken)
		if matched.Code != openParenToken.Code {
			return complete(cursor, param)
		}
	case openParenToken.Code:
	default:
		return complete(cursor, param)
	}

	param.Location = &state.Location{}
	matched = cursor.MatchAny(kindToken, closeParenToken)
	switch matched.Code {
	case kindToken.Code:
	case closeParenToken.Code:
		return complete(cursor, param)
	default:
		return nil, cursor.NewError(kindToken)
	}
	param.Location.Kind = matched.Text(cursor)

	if matched = cursor.MatchOne(slashToken); matched.Code == slashToken.Code {
		matched = cursor.MatchOne(locationToken)
		if matched.Code != locationToken.Code {
			return nil, cursor.NewError(locationToken)
		}
		param.Location.In = matched.Text(cursor)
	}
	matched = cursor.MatchOne(closeParenToken)
	if matched.Code != closeParenToken.Code {
		return nil, cursor.NewError(closeParenToken)
	}
	return complete(cursor, param)
}

func complete(cursor *parsly.Cursor, param *Param) (*Param, error) {
	if cursor.Pos < cursor.InputSize {
		return nil, invalidf("unexpected %q at %d", cursor.Input[cursor.Pos:], cursor.Pos)
	}
	return param, nil
}
