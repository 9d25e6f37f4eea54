package io

import . "github.com/weberc2/easyfs/pkg/types"

const ImageLockedErr ConstError = "image is locked by another process"
