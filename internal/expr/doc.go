// Package expr parses and compiles the right-hand sides of user-defined
// systems.
//
// The grammar is a whitelist: numbers, the coordinates x, y and z,
// parameter names, the operators + - * / ** % (with unary + and -) and
// the functions sin, cos, tan, asin, acos, atan, sinh, cosh, tanh, exp,
// log, sqrt, pow and fabs. Text outside it is rejected by [Tokenize] or
// [Parse] before anything is evaluated.
//
// [CompileSystem] binds names to slot indices and returns a [Field] whose
// [Field.Bind] yields a dynamo.System. [DetectParams] lists the free
// names of a system in first-appearance order.
package expr
