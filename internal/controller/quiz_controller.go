package controller

import (
	"classhub_backend/internal/service"
	"classhub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// Create godoc
// @Summary 在科目下创建测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   body body service.QuizRequest true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	subjectID := util.MustParseUint(ctx.Param("subjectId"))
	quiz, err := c.QuizService.CreateQuiz(subjectID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// List godoc
// @Summary 科目下的测验列表
// @Tags 测验
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Success 200 {object} util.Response{data=[]model.Quiz}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	subjectID := util.MustParseUint(ctx.Param("subjectId"))
	quizzes, err := c.QuizService.ListQuizzes(subjectID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// Get godoc
// @Summary 测验详情（含题目）
// @Tags 测验
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("quizId"))
	quiz, err := c.QuizService.GetQuiz(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// Update godoc
// @Summary 更新测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Param   body body service.QuizRequest true "测验信息"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId} [put]
func (c *QuizController) Update(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := util.MustParseUint(ctx.Param("quizId"))
	quiz, err := c.QuizService.UpdateQuiz(id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// Delete godoc
// @Summary 删除测验
// @Tags 测验
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("quizId"))
	if err := c.QuizService.DeleteQuiz(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary 向测验添加题目
// @Tags 题目
// @Accept  json
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.Question}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quizID := util.MustParseUint(ctx.Param("quizId"))
	question, err := c.QuizService.AddQuestion(quizID, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, question)
}

// ListQuestions godoc
// @Summary 测验的题目列表
// @Tags 题目
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId}/questions [get]
func (c *QuizController) ListQuestions(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	questions, err := c.QuizService.ListQuestions(quizID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 题目
// @Accept  json
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Param   questionId path int true "题目ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.Question}
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId}/questions/{questionId} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quizID := util.MustParseUint(ctx.Param("quizId"))
	questionID := util.MustParseUint(ctx.Param("questionId"))
	question, err := c.QuizService.UpdateQuestion(quizID, questionID, req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuestionNotInQuiz):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 题目
// @Produce  json
// @Param   subjectId path int true "科目ID"
// @Param   quizId path int true "测验ID"
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/subjects/{subjectId}/quizzes/{quizId}/questions/{questionId} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	questionID := util.MustParseUint(ctx.Param("questionId"))
	if err := c.QuizService.DeleteQuestion(quizID, questionID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuestionNotInQuiz):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
