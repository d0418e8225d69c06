// Package quiz drives a multiple-choice quiz conversation.
//
// A Driver reads and writes two keys of a caller-owned Session:
// KeyCurrentQuestion and KeyAnswers. The phase of the conversation is
// derived from the current question id alone:
//
//	absent/null     not started, the next message starts the quiz
//	0 .. N-1        the question awaiting an answer
//	N (or invalid)  completed, only /reset continues
package quiz
