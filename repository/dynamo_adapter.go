package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoAdapter.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoAdapter is the DynamoDB-backed remote product store.
// It stores products in table with primary key `product_id` (string).
type DynamoAdapter struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

func NewDynamoAdapter(client DynamoAPI, table string) *DynamoAdapter {
	return &DynamoAdapter{client: client, table: table, now: time.Now}
}

type ddbMediaItem struct {
	Type string `dynamodbav:"type"`
	URL  string `dynamodbav:"url"`
	Path string `dynamodbav:"path"`
}

type ddbProduct struct {
	ProductID   string         `dynamodbav:"product_id"`
	Name        string         `dynamodbav:"name"`
	Description string         `dynamodbav:"description"`
	Image       string         `dynamodbav:"image"`
	Link        string         `dynamodbav:"shopee_link"`
	Category    string         `dynamodbav:"category,omitempty"`
	Price       *string        `dynamodbav:"price,omitempty"`
	Media       []ddbMediaItem `dynamodbav:"media"`
	CreatedBy   string         `dynamodbav:"created_by,omitempty"`
	UpdatedBy   string         `dynamodbav:"updated_by,omitempty"`
	CreatedAt   string         `dynamodbav:"created_at"`
	UpdatedAt   string         `dynamodbav:"updated_at"`
}

func toDDBMedia(media []models.MediaItem) []ddbMediaItem {
	out := make([]ddbMediaItem, 0, len(media))
	for _, m := range media {
		out = append(out, ddbMediaItem{Type: string(m.Type), URL: m.URL, Path: m.Path})
	}
	return out
}

func priceString(p *decimal.Decimal) *string {
	if p == nil {
		return nil
	}
	s := p.String()
	return &s
}

func (dp ddbProduct) toModel() models.Product {
	p := models.Product{
		ID:          models.ID(dp.ProductID),
		Name:        dp.Name,
		Description: dp.Description,
		Image:       dp.Image,
		Link:        dp.Link,
		Category:    dp.Category,
		CreatedBy:   dp.CreatedBy,
		UpdatedBy:   dp.UpdatedBy,
	}
	if dp.Price != nil {
		if d, err := decimal.NewFromString(*dp.Price); err == nil {
			p.Price = &d
		}
	}
	for _, m := range dp.Media {
		p.Media = append(p.Media, models.MediaItem{Type: models.MediaKind(m.Type), URL: m.URL, Path: m.Path})
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.CreatedAt); err == nil {
		p.CreatedAt = &t
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.UpdatedAt); err == nil {
		p.UpdatedAt = &t
	}
	return p
}

func (d *DynamoAdapter) key(id models.ID) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (d *DynamoAdapter) FindByID(ctx context.Context, id models.ID) (*models.Product, error) {
	key, err := d.key(id)
	if err != nil {
		return nil, apperrors.Store("failed to build key", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, apperrors.Store("dynamodb GetItem failed", err)
	}
	if len(out.Item) == 0 {
		return nil, notFound(id)
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, apperrors.Store("unmarshal item", err)
	}
	p := dp.toModel()
	return &p, nil
}

// FindAll scans the table and orders the result by creation time, newest first.
func (d *DynamoAdapter) FindAll(ctx context.Context) ([]models.Product, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	products := []models.Product{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.Store("dynamodb scan page failed", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, apperrors.Store("unmarshal item", err)
			}
			products = append(products, dp.toModel())
		}
	}
	sortNewestFirst(products)
	return products, nil
}

func (d *DynamoAdapter) Create(ctx context.Context, product *models.Product) (models.ID, error) {
	session, err := requireSession(ctx)
	if err != nil {
		return "", err
	}

	now := d.now().UTC()
	product.ID = models.ID(uuid.New().String())
	product.CreatedBy = session.UserID
	product.CreatedAt = &now
	product.UpdatedAt = &now

	dp := ddbProduct{
		ProductID:   product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Image:       product.Image,
		Link:        product.Link,
		Category:    product.Category,
		Price:       priceString(product.Price),
		Media:       toDDBMedia(product.Media),
		CreatedBy:   product.CreatedBy,
		CreatedAt:   now.Format(time.RFC3339Nano),
		UpdatedAt:   now.Format(time.RFC3339Nano),
	}
	item, err := attributevalue.MarshalMap(dp)
	if err != nil {
		return "", apperrors.Store("marshal product", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(product_id)"),
	})
	if err != nil {
		return "", apperrors.Store("dynamodb PutItem failed", err)
	}
	return product.ID, nil
}

// Update sets the patched attributes. The record must already exist.
func (d *DynamoAdapter) Update(ctx context.Context, id models.ID, patch ProductPatch) error {
	session, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if patch.empty() {
		return nil
	}

	sets := map[string]interface{}{
		"updated_at": d.now().UTC().Format(time.RFC3339Nano),
		"updated_by": session.UserID,
	}
	var removes []string
	if in := patch.Input; in != nil {
		sets["name"] = in.Name
		sets["description"] = in.Description
		sets["image"] = in.Image
		sets["shopee_link"] = in.Link
		sets["category"] = in.Category
		if in.Price != nil {
			sets["price"] = in.Price.String()
		} else {
			// An edit without a price clears it.
			removes = append(removes, "price")
		}
	}
	if patch.Media != nil {
		sets["media"] = toDDBMedia(*patch.Media)
	}

	// Sorted so the generated expression is deterministic.
	attrs := make([]string, 0, len(sets))
	for k := range sets {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)

	expr := "SET "
	names := map[string]string{"#pk": "product_id"}
	values := make(map[string]types.AttributeValue, len(attrs))
	for i, attr := range attrs {
		np := fmt.Sprintf("#a%d", i)
		vp := fmt.Sprintf(":v%d", i)
		if i > 0 {
			expr += ", "
		}
		expr += np + " = " + vp
		av, err := attributevalue.Marshal(sets[attr])
		if err != nil {
			return apperrors.Store("marshal update value", err)
		}
		names[np] = attr
		values[vp] = av
	}
	for i, attr := range removes {
		np := fmt.Sprintf("#r%d", i)
		if i == 0 {
			expr += " REMOVE "
		} else {
			expr += ", "
		}
		expr += np
		names[np] = attr
	}

	key, err := d.key(id)
	if err != nil {
		return apperrors.Store("failed to build key", err)
	}
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.table,
		Key:                       key,
		UpdateExpression:          &expr,
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return notFound(id)
		}
		return apperrors.Store("dynamodb UpdateItem failed", err)
	}
	return nil
}

func (d *DynamoAdapter) Delete(ctx context.Context, id models.ID) error {
	if _, err := requireSession(ctx); err != nil {
		return err
	}
	key, err := d.key(id)
	if err != nil {
		return apperrors.Store("failed to build key", err)
	}
	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return apperrors.Store("dynamodb DeleteItem failed", err)
	}
	return nil
}

// sortNewestFirst orders by CreatedAt descending; undated records go last.
func sortNewestFirst(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i].CreatedAt, products[j].CreatedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}
