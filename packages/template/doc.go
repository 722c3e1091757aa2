// Package template renders ${expr} spans against a response.
//
// Expressions are deliberately small: identifiers, string/number/boolean/None
// literals, member access (a.b), index access (a["b"], a[0]) and calls of
// functions placed in the Context. There are no operators or statements, so
// response data can never be evaluated as code.
//
// A missing key or attribute renders "None" for its span only. Any other
// failure replaces the whole template with "ERROR: <message>".
package template
