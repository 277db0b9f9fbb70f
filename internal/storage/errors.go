package storage

import "errors"

// ErrNotFound возвращается, когда запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

// ErrDuplicatePair возвращается, когда предложение с такой парой объявлений уже существует.
var ErrDuplicatePair = errors.New("предложение с такой парой объявлений уже существует")

// ErrDuplicateTitle возвращается при нарушении уникальности названия объявления или категории.
var ErrDuplicateTitle = errors.New("название уже занято")


// ErrAlreadyResolved возвращается при попытке сменить статус уже рассмотренного предложения.
var ErrAlreadyResolved = errors.New("предложение уже рассмотрено")
