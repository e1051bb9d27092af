package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	ErrInvalidInvitationToken = errors.New("invitation token is incorrect")
	ErrAlreadyJoined          = errors.New("already joined")
	ErrOnlyTeachersCanJoin    = errors.New("only teachers can join")
	ErrQuizSubjectMismatch    = errors.New("quiz belongs to a different subject")

	ErrDeadlineExceeded       = errors.New("deadline for the task has passed")
	ErrSessionNotStarted      = errors.New("session for the task has not been started")
	ErrSessionAlreadyFinished = errors.New("session for the task is already finished")
	ErrQuestionNotInQuiz      = errors.New("question does not belong to the task's quiz")
	ErrDuplicateAnswer        = errors.New("question answered more than once in one submission")
	ErrGradingFailed          = errors.New("grading service failed")
)
