package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"quizzardo-service/internal/domain"
)

type questionDocument struct {
	Text          string   `bson:"text"`
	Options       []string `bson:"options"`
	CorrectOption int      `bson:"correctOption"`
	Points        int      `bson:"points"`
	TimeLimit     int      `bson:"timeLimit"`
}

// quizDocument mirrors the catalogue layout; money is stored as plain numbers.
type quizDocument struct {
	ID              string             `bson:"_id"`
	Title           string             `bson:"title"`
	Description     string             `bson:"description,omitempty"`
	Type            string             `bson:"type"`
	EntryFee        float64            `bson:"entryFee"`
	PrizeMoney      []float64          `bson:"prizeMoney"`
	PrizePool       float64            `bson:"prizePool"`
	Duration        int                `bson:"duration"`
	StartTime       time.Time          `bson:"startTime"`
	MaxParticipants int                `bson:"maxParticipants,omitempty"`
	Questions       []questionDocument `bson:"questions"`
	TotalPoints     int                `bson:"totalPoints"`
	TabSwitchLimit  int                `bson:"tabSwitchLimit,omitempty"`
	CreatedBy       string             `bson:"createdBy,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

// QuizLoader reads and writes quizzes in a MongoDB collection.
type QuizLoader struct {
	col *mongo.Collection
}

func NewQuizLoader(db *mongo.Database) *QuizLoader {
	return &QuizLoader{col: db.Collection("quizzes")}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var doc quizDocument
	err := l.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return fromDocument(doc), nil
}

func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := l.col.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, toDocument(quiz), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func toDocument(q domain.Quiz) quizDocument {
	doc := quizDocument{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		Type:            string(q.Type),
		EntryFee:        q.EntryFee.InexactFloat64(),
		PrizePool:       q.PrizePool.InexactFloat64(),
		Duration:        q.Duration,
		StartTime:       q.StartTime,
		MaxParticipants: q.MaxParticipants,
		TotalPoints:     q.TotalPoints,
		TabSwitchLimit:  q.AntiCheat.TabSwitchLimit,
		CreatedBy:       q.CreatedBy,
		CreatedAt:       q.CreatedAt,
	}
	for _, p := range q.PrizeMoney {
		doc.PrizeMoney = append(doc.PrizeMoney, p.InexactFloat64())
	}
	for _, question := range q.Questions {
		doc.Questions = append(doc.Questions, questionDocument{
			Text:          question.Text,
			Options:       question.Options,
			CorrectOption: question.CorrectOption,
			Points:        question.Points,
			TimeLimit:     question.TimeLimit,
		})
	}
	return doc
}

func fromDocument(doc quizDocument) domain.Quiz {
	q := domain.Quiz{
		ID:              doc.ID,
		Title:           doc.Title,
		Description:     doc.Description,
		Type:            domain.QuizType(doc.Type),
		EntryFee:        decimal.NewFromFloat(doc.EntryFee),
		PrizePool:       decimal.NewFromFloat(doc.PrizePool),
		Duration:        doc.Duration,
		StartTime:       doc.StartTime,
		MaxParticipants: doc.MaxParticipants,
		TotalPoints:     doc.TotalPoints,
		AntiCheat:       domain.AntiCheat{TabSwitchLimit: doc.TabSwitchLimit},
		CreatedBy:       doc.CreatedBy,
		CreatedAt:       doc.CreatedAt,
	}
	if q.Type == "" {
		q.Type = domain.QuizFree
	}
	for _, p := range doc.PrizeMoney {
		q.PrizeMoney = append(q.PrizeMoney, decimal.NewFromFloat(p))
	}
	for _, question := range doc.Questions {
		q.Questions = append(q.Questions, domain.Question{
			Text:          question.Text,
			Options:       question.Options,
			CorrectOption: question.CorrectOption,
			Points:        question.Points,
			TimeLimit:     question.TimeLimit,
		})
	}
	return q
}
