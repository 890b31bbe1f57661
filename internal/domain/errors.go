package domain

import "errors"

// ErrValidation 用户输入缺失或非法（可恢复，提示用户修正后重新提交）
var ErrValidation = errors.New("validation failed")

// ErrPatientNotFound 病人记录不存在（终态加载失败，需要向用户提示）
var ErrPatientNotFound = errors.New("patient not found")
